package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boxdrop/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// OwnerIDKey is the context key for the authenticated owner's ID.
const OwnerIDKey contextKey = "ownerID"

// OwnerID returns the owner id stored by RequireOwner.
func OwnerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(OwnerIDKey).(string)
	return id, ok && id != ""
}

// WithOwnerID returns a context carrying ownerID, as RequireOwner would.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

// RequireOwner returns middleware that validates the identity provider's
// session JWT and injects the owner id (the "sub" claim) into the request
// context. Browsers cannot set headers on websocket upgrades, so the token
// is also accepted from the access_token query parameter.
func RequireOwner(jwtSecret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				response.Unauthorized(w, "authorization header required")
				return
			}

			token, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				response.Unauthorized(w, "invalid or expired session")
				return
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				response.Unauthorized(w, "invalid session claims")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), sub)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if q := r.URL.Query().Get("access_token"); q != "" {
		return q, true
	}
	return "", false
}
