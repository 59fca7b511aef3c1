package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/boxdrop/service/internal/db"
	"github.com/boxdrop/service/internal/secretbox"
)

// Repository stores credentials in PostgreSQL. Tokens are sealed before
// they leave the process.
type Repository struct {
	db  db.DBTX
	box *secretbox.Box
}

var _ Store = (*Repository)(nil)

// NewRepository creates a credential Repository.
func NewRepository(db db.DBTX, box *secretbox.Box) *Repository {
	return &Repository{db: db, box: box}
}

// Get returns the credential of ownerID for provider.
func (r *Repository) Get(ctx context.Context, ownerID, provider string) (*Credential, error) {
	var (
		c            = &Credential{}
		refreshToken *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT owner_id, provider, access_token, refresh_token, expires_at, updated_at
		 FROM owner_credentials
		 WHERE owner_id = $1 AND provider = $2`,
		ownerID, provider,
	).Scan(&c.OwnerID, &c.Provider, &c.AccessToken, &refreshToken, &c.ExpiresAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if refreshToken != nil {
		c.RefreshToken = *refreshToken
	}

	if c.AccessToken, err = r.box.Open(c.AccessToken); err != nil {
		return nil, fmt.Errorf("open access token: %w", err)
	}
	if c.RefreshToken, err = r.box.Open(c.RefreshToken); err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

// Upsert writes the credential keyed on (owner, provider). A NULL refresh
// token never replaces a stored one.
func (r *Repository) Upsert(ctx context.Context, c *Credential) error {
	if err := c.Validate(); err != nil {
		return err
	}
	accessToken, err := r.box.Seal(c.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refreshToken, err := r.box.Seal(c.RefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO owner_credentials (owner_id, provider, access_token, refresh_token, expires_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		 ON CONFLICT (owner_id, provider) DO UPDATE SET
		     access_token  = EXCLUDED.access_token,
		     refresh_token = COALESCE(EXCLUDED.refresh_token, owner_credentials.refresh_token),
		     expires_at    = EXCLUDED.expires_at,
		     updated_at    = EXCLUDED.updated_at`,
		c.OwnerID, c.Provider, accessToken, refreshToken, c.ExpiresAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Delete removes the credential. Deleting a missing row is not an error.
func (r *Repository) Delete(ctx context.Context, ownerID, provider string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM owner_credentials WHERE owner_id = $1 AND provider = $2`,
		ownerID, provider,
	)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
