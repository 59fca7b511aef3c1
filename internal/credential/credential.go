// Package credential owns the storage-provider tokens of each owner: it
// persists them, refreshes them with the provider and hands out valid
// access tokens to code acting on the owner's behalf.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotConnected is returned when the owner has no stored credential.
	ErrNotConnected = errors.New("owner is not connected to the storage provider")

	// ErrNoRefreshToken is returned when a refresh is needed but none is stored.
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// ErrProviderRejected is returned when the token endpoint refuses the refresh grant.
	ErrProviderRejected = errors.New("provider rejected refresh grant")

	// ErrInvalid is returned when a credential fails validation.
	ErrInvalid = errors.New("invalid credential")
)

// Credential is the stored token set of one owner for one provider.
// An empty RefreshToken means none is stored. A nil ExpiresAt means the
// access token is assumed valid.
type Credential struct {
	OwnerID      string     `json:"ownerId"`
	Provider     string     `json:"provider"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Validate checks the fields required at the store boundary.
func (c *Credential) Validate() error {
	switch {
	case strings.TrimSpace(c.OwnerID) == "":
		return fmt.Errorf("%w: owner id is required", ErrInvalid)
	case strings.TrimSpace(c.Provider) == "":
		return fmt.Errorf("%w: provider is required", ErrInvalid)
	case c.AccessToken == "":
		return fmt.Errorf("%w: access token is required", ErrInvalid)
	}
	return nil
}

// ExpiresWithin reports whether the access token expires before now+margin.
func (c *Credential) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return c.Token().ExpiresWithin(now, margin)
}

// Token returns the access-token view of the credential.
func (c *Credential) Token() *Token {
	return &Token{AccessToken: c.AccessToken, ExpiresAt: c.ExpiresAt}
}

// Token is an access token handed to callers acting on behalf of an owner.
type Token struct {
	AccessToken string     `json:"accessToken"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// ExpiresWithin reports whether the token expires before now+margin.
// A token without expiry never does.
func (t *Token) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now.Add(margin))
}

// RefreshError describes a failed exchange at the provider token endpoint.
type RefreshError struct {
	OwnerID  string
	Provider string
	Status   int    // HTTP status of the token endpoint, 0 on transport failure
	Code     string // OAuth error code, e.g. "invalid_grant"
	Err      error
}

func (e *RefreshError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("refresh token for %s/%s: status %d %s: %v", e.OwnerID, e.Provider, e.Status, e.Code, e.Err)
	}
	return fmt.Sprintf("refresh token for %s/%s: %v", e.OwnerID, e.Provider, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Store persists credentials, unique per (owner, provider).
type Store interface {
	// Get returns ErrNotConnected when no row exists.
	Get(ctx context.Context, ownerID, provider string) (*Credential, error)
	// Upsert inserts or replaces the row for (owner, provider). An empty
	// RefreshToken keeps the stored one.
	Upsert(ctx context.Context, c *Credential) error
	Delete(ctx context.Context, ownerID, provider string) error
}
