package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/boxdrop/service/internal/response"
)

// UploadSecretHeader carries the shared upload-gate secret.
const UploadSecretHeader = "X-Upload-Secret"

// UploadGate rejects public requests that do not present the shared secret
// in the X-Upload-Secret header or the secret query parameter. An empty
// secret disables the gate.
func UploadGate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(UploadSecretHeader)
			if presented == "" {
				presented = r.URL.Query().Get("secret")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				response.Unauthorized(w, "upload access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
