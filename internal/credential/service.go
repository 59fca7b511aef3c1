package credential

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ConnectInput is the provider token handed over at owner login.
type ConnectInput struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Service contains the credential lifecycle logic for the configured provider.
type Service struct {
	store     Store
	refresher *Refresher
	provider  string
	margin    time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// NewService creates a credential Service.
func NewService(store Store, refresher *Refresher, provider string, margin time.Duration, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		refresher: refresher,
		provider:  provider,
		margin:    margin,
		now:       time.Now,
		log:       log,
	}
}

// Provider returns the provider name credentials are stored under.
func (s *Service) Provider() string {
	return s.provider
}

// Connect stores the token obtained at owner login.
func (s *Service) Connect(ctx context.Context, ownerID string, in ConnectInput) error {
	c := &Credential{
		OwnerID:      ownerID,
		Provider:     s.provider,
		AccessToken:  in.AccessToken,
		RefreshToken: in.RefreshToken,
		ExpiresAt:    in.ExpiresAt,
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, c); err != nil {
		return fmt.Errorf("connect owner: %w", err)
	}
	s.log.Info("owner connected to provider",
		zap.String("owner_id", ownerID),
		zap.String("provider", s.provider),
		zap.Bool("has_refresh_token", in.RefreshToken != ""),
	)
	return nil
}

// Disconnect removes the owner's stored credential.
func (s *Service) Disconnect(ctx context.Context, ownerID string) error {
	if err := s.store.Delete(ctx, ownerID, s.provider); err != nil {
		return fmt.Errorf("disconnect owner: %w", err)
	}
	s.log.Info("owner disconnected from provider", zap.String("owner_id", ownerID), zap.String("provider", s.provider))
	return nil
}

// Get returns the stored credential without refreshing it.
func (s *Service) Get(ctx context.Context, ownerID, provider string) (*Credential, error) {
	return s.store.Get(ctx, ownerID, provider)
}

// Refresh runs one refresh cycle for the owner.
func (s *Service) Refresh(ctx context.Context, ownerID, provider string) (*Token, error) {
	return s.refresher.Refresh(ctx, ownerID, provider)
}

// ValidToken returns an access token that is not within the safety margin
// of its expiry, refreshing and persisting it when needed.
func (s *Service) ValidToken(ctx context.Context, ownerID string) (*Token, error) {
	stored, err := s.store.Get(ctx, ownerID, s.provider)
	if err != nil {
		return nil, err
	}
	if !stored.ExpiresWithin(s.now(), s.margin) {
		return stored.Token(), nil
	}
	return s.refresher.Refresh(ctx, ownerID, s.provider)
}
