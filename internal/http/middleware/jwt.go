package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/timey-uz/timey-backend/internal/http/response"
	"github.com/timey-uz/timey-backend/pkg/auth"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

type claimsKey string

const ClaimsKey claimsKey = "claims"

// RequireRole enforces a bearer token with the given role.
func RequireRole(secret, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, secret)
			if err != nil {
				response.Unauthorized(w, "invalid token")
				return
			}

			if role != "" && claims.Role != role {
				response.Unauthorized(w, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.MasterIDKey, claims.Sub)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromRequest returns the parsed claims, if any.
func ClaimsFromRequest(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(ClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
