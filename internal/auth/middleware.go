package auth

import (
	"log/slog"
	"net/http"

	"github.com/lokapasar/lokapasar/internal/observability"
	"github.com/lokapasar/lokapasar/internal/platform/httpx"
	"github.com/lokapasar/lokapasar/internal/shared"
)

// Middleware resolves the request credential into a Principal in context.
type Middleware struct {
	Resolver *Resolver
	Sessions *shared.SessionManager
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Authenticate rejects requests whose credential does not resolve.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.Sessions.TokenFromRequest(r)
		principal, err := m.Resolver.Resolve(r.Context(), token)
		if err != nil {
			if shared.KindOf(err) == "" && m.Logger != nil {
				m.Logger.Error("resolve principal", slog.Any("error", err))
			}
			code := shared.CodeOf(err)
			if code == "" {
				code = "internal"
			}
			m.Metrics.CountAuthFailure(code)
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// OptionalAuthenticate resolves the principal when possible and continues
// anonymously otherwise.
func (m Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.Sessions.TokenFromRequest(r)
		if token != "" {
			if principal, err := m.Resolver.Resolve(r.Context(), token); err == nil {
				r = r.WithContext(ContextWithPrincipal(r.Context(), principal))
			}
		}
		next.ServeHTTP(w, r)
	})
}
