package middleware

import (
	"net/http"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/response"
)

// RequirePermission ensures the authenticated user's role grants at least
// one of perms.
func RequirePermission(perms ...catalog.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}

			if !claims.Role.Permissions().HasAny(perms...) {
				response.Error(w, http.StatusForbidden, "Forbidden", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
