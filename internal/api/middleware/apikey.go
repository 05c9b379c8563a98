package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
)

// APIKeyHeader is the header carrying the shared API key.
const APIKeyHeader = "x-api-key"

// APIKeyAuth creates middleware that validates the shared static API
// key. The comparison is constant-time so the key length and prefix
// cannot be probed through response timing.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				writeUnauthorized(w, r, "api key authentication is not configured")
				return
			}

			provided := []byte(r.Header.Get(APIKeyHeader))
			if subtle.ConstantTimeCompare(provided, expected) != 1 {
				writeUnauthorized(w, r, "invalid or missing api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}
