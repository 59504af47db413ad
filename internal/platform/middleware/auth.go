// Package middleware provides the HTTP middleware chain: authentication,
// client metadata extraction, and admin token enforcement.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "rotalog/pkg/domain"
	"rotalog/pkg/requestcontext"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	ActorID string
	// Role is the subject's role in the training programme: INTERN, TUTOR or ADMIN.
	Role string
}

// Reviewer capability is derived from the role claim here, once, so domain
// services only ever consume the boolean.
func mayReview(role string) bool {
	switch role {
	case "TUTOR", "ADMIN":
		return true
	default:
		return false
	}
}

// RequireAuth validates the bearer token and injects actor ID and reviewer
// capability into the request context. Requests without a valid token get 401.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "missing bearer token",
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "token validation failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				unauthorized(w)
				return
			}

			actorID, err := id.ParseVerifierID(claims.ActorID)
			if err != nil {
				logger.WarnContext(ctx, "token subject is not a valid actor id",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				unauthorized(w)
				return
			}

			ctx = requestcontext.WithActorID(ctx, actorID)
			ctx = requestcontext.WithMayReview(ctx, mayReview(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"valid bearer token required"}`))
}
