package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/credential"
)

// ErrOwnerDisconnected is returned when no usable credential exists for the
// owner: none is stored, or refreshing it failed.
var ErrOwnerDisconnected = errors.New("owner is not connected to storage")

// maxErrorBody bounds the response excerpt kept in an UpstreamError.
const maxErrorBody = 512

// Session identifies whose credential a request acts with.
type Session struct {
	OwnerID  string
	Provider string
}

// Credentials reads and refreshes owner tokens.
type Credentials interface {
	Get(ctx context.Context, ownerID, provider string) (*credential.Credential, error)
	Refresh(ctx context.Context, ownerID, provider string) (*credential.Token, error)
}

var _ Credentials = (*credential.Service)(nil)

// Deps are the process-wide collaborators of every AuthorizedClient.
type Deps struct {
	Credentials Credentials
	HTTP        *resty.Client
	Margin      time.Duration // refresh proactively when expiry is this close
	Timeout     time.Duration // per provider call
	Now         func() time.Time
	Log         *zap.Logger
}

// Request is a provider API call. Body is replayed verbatim on retry.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header map[string]string
	Body   []byte

	// CallerDeadline lets a deadline already on the context replace the
	// per-call provider timeout. Uploads sized by the caller use it.
	CallerDeadline bool
}

// UpstreamError is a failed provider call.
type UpstreamError struct {
	Method       string
	URL          string
	Status       int    // 0 when no response was received
	Body         string // excerpt of the response body
	Unauthorized bool
	Err          error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AuthorizedClient sends provider requests with the owner's access token.
// A call refreshes the token at most once: proactively when it is about to
// expire, or after the provider rejects it, in which case the request is
// retried exactly once. The token is cached for the client's lifetime so
// calls of one request share it.
type AuthorizedClient struct {
	deps    Deps
	session Session

	mu    sync.Mutex
	token *credential.Token
}

// NewAuthorizedClient creates a client acting for session.
func NewAuthorizedClient(deps Deps, session Session) *AuthorizedClient {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &AuthorizedClient{deps: deps, session: session}
}

// Session returns the session the client acts for.
func (c *AuthorizedClient) Session() Session {
	return c.session
}

// Prepare loads a usable token without sending a provider request.
func (c *AuthorizedClient) Prepare(ctx context.Context) error {
	_, _, err := c.currentToken(ctx)
	return err
}

// Do sends req and returns the response of a 2xx exchange.
func (c *AuthorizedClient) Do(ctx context.Context, req *Request) (*resty.Response, error) {
	token, refreshed, err := c.currentToken(ctx)
	if err != nil {
		return nil, c.upstream(req, err)
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, c.upstream(req, err)
	}

	if isAuthFailure(resp) && !refreshed {
		c.deps.Log.Info("provider rejected owner token, refreshing",
			zap.String("owner_id", c.session.OwnerID),
			zap.String("provider", c.session.Provider),
			zap.Int("status", resp.StatusCode()),
		)
		fresh, err := c.refresh(ctx, token)
		if err != nil {
			return nil, c.upstream(req, err)
		}
		if resp, err = c.send(ctx, req, fresh.AccessToken); err != nil {
			return nil, c.upstream(req, err)
		}
	}

	if isAuthFailure(resp) {
		return nil, &UpstreamError{
			Method:       req.Method,
			URL:          req.URL,
			Status:       http.StatusUnauthorized,
			Body:         excerpt(resp.Body()),
			Unauthorized: true,
		}
	}
	if resp.IsError() || resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &UpstreamError{
			Method: req.Method,
			URL:    req.URL,
			Status: resp.StatusCode(),
			Body:   excerpt(resp.Body()),
		}
	}
	return resp, nil
}

// currentToken returns a token outside the refresh margin and whether this
// call already spent its refresh obtaining it.
func (c *AuthorizedClient) currentToken(ctx context.Context) (string, bool, error) {
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()

	now := c.deps.Now()
	if cached != nil && !cached.ExpiresWithin(now, c.deps.Margin) {
		return cached.AccessToken, false, nil
	}

	stale := ""
	if cached != nil {
		stale = cached.AccessToken
	} else {
		stored, err := c.deps.Credentials.Get(ctx, c.session.OwnerID, c.session.Provider)
		if errors.Is(err, credential.ErrNotConnected) {
			return "", false, fmt.Errorf("%w: %w", ErrOwnerDisconnected, err)
		}
		if err != nil {
			return "", false, fmt.Errorf("load credential: %w", err)
		}
		if !stored.ExpiresWithin(now, c.deps.Margin) {
			c.setToken(stored.Token())
			return stored.AccessToken, false, nil
		}
		stale = stored.AccessToken
	}

	fresh, err := c.refresh(ctx, stale)
	if err != nil {
		return "", false, err
	}
	return fresh.AccessToken, true, nil
}

// refresh replaces stale with a new token. When another call of this client
// has already replaced it, that token is used instead.
func (c *AuthorizedClient) refresh(ctx context.Context, stale string) (*credential.Token, error) {
	c.mu.Lock()
	if c.token != nil && c.token.AccessToken != stale {
		tok := c.token
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	tok, err := c.deps.Credentials.Refresh(ctx, c.session.OwnerID, c.session.Provider)
	if err != nil {
		c.deps.Log.Warn("owner token refresh failed",
			zap.String("owner_id", c.session.OwnerID),
			zap.String("provider", c.session.Provider),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrOwnerDisconnected, err)
	}
	c.setToken(tok)
	return tok, nil
}

func (c *AuthorizedClient) setToken(tok *credential.Token) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *AuthorizedClient) send(ctx context.Context, req *Request, token string) (*resty.Response, error) {
	if _, ok := ctx.Deadline(); !ok || !req.CallerDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deps.Timeout)
		defer cancel()
	}

	r := c.deps.HTTP.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeaders(req.Header)
	if req.Query != nil {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}
	return r.Execute(req.Method, req.URL)
}

// upstream classifies err as an UpstreamError. Credential failures keep
// ErrOwnerDisconnected in their chain.
func (c *AuthorizedClient) upstream(req *Request, err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	ue = &UpstreamError{Method: req.Method, URL: req.URL, Err: err}
	if errors.Is(err, ErrOwnerDisconnected) {
		ue.Status = http.StatusUnauthorized
		ue.Unauthorized = true
	}
	return ue
}

// isAuthFailure reports whether the provider rejected the access token.
// A 403 counts only when the provider names an authorization reason.
func isAuthFailure(resp *resty.Response) bool {
	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		var body struct {
			Error struct {
				Errors []struct {
					Reason string `json:"reason"`
				} `json:"errors"`
			} `json:"error"`
		}
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return false
		}
		for _, e := range body.Error.Errors {
			if e.Reason == "authError" || e.Reason == "invalidCredentials" {
				return true
			}
		}
	}
	return false
}

func excerpt(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
