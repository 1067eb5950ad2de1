package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/afflytics/afflytics/internal/auth"
)

// AdminAuth guards mutating routes with a single admin API key checked
// against an Argon2id hash. An empty hash disables the check; this is
// only acceptable in development.
func AdminAuth(keyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := bearerToken(r)
			if key == "" {
				http.Error(w, "missing credentials", http.StatusUnauthorized)
				return
			}

			ok, err := auth.VerifyKey(keyHash, key)
			if err != nil {
				logger.Error("admin key verification failed",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("error", err.Error()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Error(w, "invalid credentials", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
