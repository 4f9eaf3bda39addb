package rbac

import (
	"log/slog"
	"net/http"

	"github.com/lokapasar/lokapasar/internal/auth"
	"github.com/lokapasar/lokapasar/internal/platform/httpx"
	"github.com/lokapasar/lokapasar/internal/shared"
)

// Middleware builds per-route authorization guards over the resolved
// principal. The auth middleware must run first; an absent principal is
// treated as an authentication failure, not an authorization one.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole admits requests whose principal holds at least one of the
// named roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return m.guard("role", roles, func(p Principal) bool {
		return HasRole(p, roles...)
	})
}

// RequirePermission admits requests whose principal holds at least one of
// the named permissions.
func (m Middleware) RequirePermission(perms ...string) func(http.Handler) http.Handler {
	return m.guard("permission", perms, func(p Principal) bool {
		return HasPermission(p, perms...)
	})
}

func (m Middleware) guard(kind string, names []string, allow func(Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.Authentication("invalid_credential", "credential could not be resolved"))
				return
			}
			if !allow(principal) {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.Int64("user_id", principal.ID),
						slog.String("guard", kind),
						slog.Any("required", names),
						slog.String("path", r.URL.Path),
					)
				}
				httpx.RespondError(w, shared.Authorization("forbidden", "missing required %s", kind))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
