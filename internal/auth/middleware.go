package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/synapaxon/question-bank/internal/auth/jwt"
	"github.com/synapaxon/question-bank/pkg/http/envelope"
)

// RequireAuth validates the bearer token and injects the caller's claims
// into the request context.
func RequireAuth(authSvc *Service, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				envelope.Unauthorized(w, envelope.CodeAuthenticationRequired, "Not authorized to access this route")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				envelope.Unauthorized(w, envelope.CodeInvalidToken, "Invalid authorization header")
				return
			}

			claims, err := authSvc.ValidateToken(parts[1])
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				envelope.Unauthorized(w, envelope.CodeInvalidToken, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.IntoContext(r.Context(), claims)))
		})
	}
}

// RequireAdmin ensures the caller carries the admin role. Must run after
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.FromContext(r.Context())
		if claims == nil || claims.Role != RoleAdmin {
			envelope.Forbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
