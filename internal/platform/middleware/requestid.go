package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"rotalog/pkg/requestcontext"
)

// CorrelationID copies chi's request ID into the transport-agnostic request
// context so services and audit events can log it without importing chi.
// Mount after chi's RequestID middleware.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
