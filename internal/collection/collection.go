// Package collection manages owner collections: a provider folder paired
// with a short public code that anonymous uploaders use until it expires.
package collection

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength is the longest collection name accepted, in characters.
const MaxNameLength = 120

var (
	// ErrNotFound is returned when a collection does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("collection not found")

	// ErrValidation is returned for malformed input or records.
	ErrValidation = errors.New("invalid collection")

	// ErrCodeTaken is returned by Store.Insert when the code is already in use.
	ErrCodeTaken = errors.New("collection code already in use")

	// ErrAllocationExhausted is returned when every generated code collided.
	ErrAllocationExhausted = errors.New("could not allocate a unique collection code")
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{4,12}$`)

// ValidCode reports whether code has the public link code format.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Collection is a time-boxed upload target owned by one owner.
type Collection struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Name      string    `json:"name"`
	FolderID  string    `json:"folderId"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	ItemCount int       `json:"itemCount"`
}

// Validate checks a record at the store boundary.
func (c *Collection) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: id is required", ErrValidation)
	case c.OwnerID == "":
		return fmt.Errorf("%w: owner id is required", ErrValidation)
	case c.FolderID == "":
		return fmt.Errorf("%w: folder id is required", ErrValidation)
	case !ValidCode(c.Code):
		return fmt.Errorf("%w: malformed code %q", ErrValidation, c.Code)
	case c.ItemCount < 0:
		return fmt.Errorf("%w: negative item count", ErrValidation)
	case !c.ExpiresAt.After(c.CreatedAt):
		return fmt.Errorf("%w: expiry not after creation", ErrValidation)
	}
	return nil
}

// Expired reports whether uploads are closed at now. A collection is
// expired from the instant expiresAt is reached.
func (c *Collection) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// NormalizeName trims name and checks its length.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if n > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxNameLength)
	}
	return name, nil
}

// Store persists collections.
type Store interface {
	// Insert stores c and sets its ID. Returns ErrCodeTaken when the code
	// is already in use.
	Insert(ctx context.Context, c *Collection) error
	GetByCode(ctx context.Context, code string) (*Collection, error)
	// GetForOwner returns ErrNotFound for collections of other owners.
	GetForOwner(ctx context.Context, ownerID, id string) (*Collection, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Collection, error)
	Delete(ctx context.Context, ownerID, id string) error
	// IncrementItemCount atomically adds n and returns the new count.
	IncrementItemCount(ctx context.Context, id string, n int) (int, error)
}
