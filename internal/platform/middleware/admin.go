package middleware

import (
	"log/slog"
	"net/http"

	"rotalog/pkg/requestcontext"
	"rotalog/pkg/secrets"
)

// RequireAdminToken guards admin endpoints with a shared token. Only the
// bcrypt hash is configured; the plaintext never touches the process config.
// An empty hash disables the endpoints entirely.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if tokenHash == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}

			token := r.Header.Get("X-Admin-Token")
			ok, err := secrets.Verify(tokenHash, token)
			if err != nil || !ok {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
				)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
