package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/boxdrop/service/internal/db"
)

// codeConstraint is the unique constraint on collections.code.
const codeConstraint = "collections_code_key"

const selectColumns = `id, owner_id, name, folder_id, code, created_at, expires_at, item_count`

// Repository handles all collection database operations.
type Repository struct {
	db db.DBTX
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new Repository.
func NewRepository(db db.DBTX) *Repository {
	return &Repository{db: db}
}

// Insert stores c. The database assigns the id.
func (r *Repository) Insert(ctx context.Context, c *Collection) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO collections (owner_id, name, folder_id, code, created_at, expires_at, item_count)
		 VALUES ($1, $2, $3, $4, $5, $6, 0)
		 RETURNING id`,
		c.OwnerID, c.Name, c.FolderID, c.Code, c.CreatedAt, c.ExpiresAt,
	).Scan(&c.ID)
	if err != nil {
		if isCodeViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

// GetByCode fetches a collection by its public code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Collection, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM collections WHERE code = $1`,
		code,
	)
	return scanOne(row, "get collection by code")
}

// GetForOwner fetches a collection by id, scoped to ownerID.
func (r *Repository) GetForOwner(ctx context.Context, ownerID, id string) (*Collection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM collections WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	return scanOne(row, "get collection")
}

// ListByOwner returns the owner's collections, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Collection, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+selectColumns+` FROM collections WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	out := []Collection{}
	for rows.Next() {
		var c Collection
		if err := scan(rows, &c); err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("list collections: corrupt row %s: %v", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return out, nil
}

// Delete removes the owner's collection.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM collections WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementItemCount adds n to the counter in a single statement so
// concurrent uploads never lose an increment.
func (r *Repository) IncrementItemCount(ctx context.Context, id string, n int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`UPDATE collections SET item_count = item_count + $2 WHERE id = $1 RETURNING item_count`,
		id, n,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment item count: %w", err)
	}
	return count, nil
}

func scanOne(row pgx.Row, op string) (*Collection, error) {
	c := &Collection{}
	err := scan(row, c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// not ErrValidation: a bad row is a store failure, not bad input
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: corrupt row %s: %v", op, c.ID, err)
	}
	return c, nil
}

func scan(row pgx.Row, c *Collection) error {
	return row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.FolderID, &c.Code, &c.CreatedAt, &c.ExpiresAt, &c.ItemCount)
}

// isCodeViolation checks whether err is a unique violation of the code constraint.
func isCodeViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == codeConstraint
}
