package middleware

import (
	"net/http"
	"slices"

	goAccount "github.com/MrEthical07/goAccount"
)

// Authorize admits requests whose authenticated role is one of roles. It must
// run after Authenticate.
func Authorize(roles ...goAccount.Role) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := goAccount.ClaimsFromContext(r.Context())
			if !ok || claims.Role == "" {
				reject(w, http.StatusForbidden, "Access denied. User role not found.")
				return
			}
			if !slices.Contains(allowed, claims.Role) {
				reject(w, http.StatusForbidden, "Access denied. Insufficient permissions.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin() func(http.Handler) http.Handler {
	return Authorize(goAccount.RoleAdmin)
}

func RequireAdminOrModerator() func(http.Handler) http.Handler {
	return Authorize(goAccount.RoleAdmin, goAccount.RoleModerator)
}
