package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/http/response"
	"github.com/voyago/travel-bookings/pkg/auth"
	"github.com/voyago/travel-bookings/pkg/logger"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

// RequireIdentity parses the externally-issued bearer token into the caller's
// identity. Whether the caller may do what they are asking is decided in the
// services, not here.
func RequireIdentity(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header")
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(authz, "Bearer "), jwtSecret)
			if err != nil {
				response.Unauthorized(w, "invalid authorization token")
				return
			}

			ident := domain.Identity{UserID: claims.Sub, Admin: claims.Admin}
			ctx := context.WithValue(r.Context(), ctxIdentity, ident)
			ctx = context.WithValue(ctx, logger.UserIDKey, ident.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identity returns the identity stashed by RequireIdentity, or false when the
// request skipped authentication.
func Identity(r *http.Request) (domain.Identity, bool) {
	v := r.Context().Value(ctxIdentity)
	if v == nil {
		return domain.Identity{}, false
	}
	return v.(domain.Identity), true
}
