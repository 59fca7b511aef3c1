package collection

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
)

// codeAlphabet is the set of characters codes are drawn from.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AllocatorConfig controls code generation and retention.
type AllocatorConfig struct {
	CodeLength  int
	MaxAttempts int
	Retention   time.Duration
}

// Allocator creates collections with a fresh unique code. Uniqueness is
// enforced by the store; a collision is retried with a new code.
type Allocator struct {
	store    Store
	cfg      AllocatorConfig
	now      func() time.Time
	generate func(length int) (string, error)
	log      *zap.Logger
}

// NewAllocator creates an Allocator.
func NewAllocator(store Store, cfg AllocatorConfig, log *zap.Logger) *Allocator {
	return &Allocator{
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		generate: GenerateCode,
		log:      log,
	}
}

// Allocate stores a new collection for ownerID pointing at folderID.
func (a *Allocator) Allocate(ctx context.Context, ownerID, name, folderID string) (*Collection, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(folderID) == "" {
		return nil, fmt.Errorf("%w: owner and folder are required", ErrValidation)
	}

	createdAt := a.now().UTC()
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		code, err := a.generate(a.cfg.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		c := &Collection{
			OwnerID:   ownerID,
			Name:      name,
			FolderID:  folderID,
			Code:      code,
			CreatedAt: createdAt,
			ExpiresAt: createdAt.Add(a.cfg.Retention),
		}
		err = a.store.Insert(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return nil, fmt.Errorf("allocate collection: %w", err)
		}
		a.log.Warn("collection code collision", zap.Int("attempt", attempt), zap.Int("code_length", a.cfg.CodeLength))
	}
	return nil, ErrAllocationExhausted
}

// GenerateCode returns length characters drawn uniformly from A-Z0-9.
func GenerateCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
