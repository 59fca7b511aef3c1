package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// OAuthClient is the confidential client registered with the provider.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Refresher exchanges stored refresh tokens for new access tokens.
// Concurrent refreshes for the same owner within the process share one
// exchange; refreshes from other processes are tolerated.
type Refresher struct {
	store   Store
	oauth   *oauth2.Config
	http    *http.Client
	timeout time.Duration
	group   singleflight.Group
	log     *zap.Logger
}

// NewRefresher creates a Refresher. httpClient may be nil.
func NewRefresher(store Store, client OAuthClient, httpClient *http.Client, timeout time.Duration, log *zap.Logger) *Refresher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Refresher{
		store: store,
		oauth: &oauth2.Config{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  client.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		http:    httpClient,
		timeout: timeout,
		log:     log,
	}
}

// Refresh mints a new access token for (ownerID, provider) and persists it.
func (r *Refresher) Refresh(ctx context.Context, ownerID, provider string) (*Token, error) {
	key := ownerID + "|" + provider
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		// detached so one caller's cancellation does not fail the others
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.refresh(ctx, ownerID, provider)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug("shared token refresh", zap.String("owner_id", ownerID), zap.String("provider", provider))
	}
	return v.(*Token), nil
}

func (r *Refresher) refresh(ctx context.Context, ownerID, provider string) (*Token, error) {
	stored, err := r.store.Get(ctx, ownerID, provider)
	if err != nil {
		return nil, err
	}
	if stored.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.http)
	fresh, err := r.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken}).Token()
	if err != nil {
		refreshErr := &RefreshError{OwnerID: ownerID, Provider: provider, Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			refreshErr.Code = retrieveErr.ErrorCode
			if retrieveErr.Response != nil {
				refreshErr.Status = retrieveErr.Response.StatusCode
			}
			// 5xx is a provider outage, not a verdict on the grant
			if refreshErr.Status < http.StatusInternalServerError {
				refreshErr.Err = ErrProviderRejected
			}
		}
		r.log.Warn("token refresh failed",
			zap.String("owner_id", ownerID),
			zap.String("provider", provider),
			zap.Int("status", refreshErr.Status),
			zap.String("code", refreshErr.Code),
			zap.Error(err),
		)
		return nil, refreshErr
	}

	updated := &Credential{
		OwnerID:     ownerID,
		Provider:    provider,
		AccessToken: fresh.AccessToken,
	}
	if !fresh.Expiry.IsZero() {
		expiresAt := fresh.Expiry.UTC()
		updated.ExpiresAt = &expiresAt
	}
	// providers may reuse the refresh token; only a new non-empty one replaces it
	if fresh.RefreshToken != "" && fresh.RefreshToken != stored.RefreshToken {
		updated.RefreshToken = fresh.RefreshToken
	}
	if err := r.store.Upsert(ctx, updated); err != nil {
		return nil, fmt.Errorf("persist refreshed token: %w", err)
	}

	r.log.Info("token refreshed",
		zap.String("owner_id", ownerID),
		zap.String("provider", provider),
		zap.Bool("refresh_token_rotated", updated.RefreshToken != ""),
	)
	return updated.Token(), nil
}
