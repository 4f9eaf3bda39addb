package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lokapasar/lokapasar/internal/audit"
	"github.com/lokapasar/lokapasar/internal/auth"
	"github.com/lokapasar/lokapasar/internal/moderation"
	"github.com/lokapasar/lokapasar/internal/observability"
	"github.com/lokapasar/lokapasar/internal/rbac"
	"github.com/lokapasar/lokapasar/internal/shared"
	"github.com/lokapasar/lokapasar/internal/shops"
	"github.com/lokapasar/lokapasar/internal/users"
	"github.com/lokapasar/lokapasar/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthMiddleware    auth.Middleware
	RBACMiddleware    rbac.Middleware
	AuthHandler       *auth.Handler
	RBACHandler       *rbac.Handler
	ModerationHandler *moderation.Handler
	UsersHandler      *users.Handler
	ShopsHandler      *shops.Handler
	AuditHandler      *audit.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the HTTP API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			params.AuthHandler.MountSessionRoutes(r)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.AuthMiddleware.Authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequirePermission(shared.PermUserRead, shared.PermAdminAll))
				params.UsersHandler.MountRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequirePermission(shared.PermUserWrite, shared.PermAdminAll))
				params.ModerationHandler.MountUserRoutes(r)
			})
		})

		r.Route("/shops", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequirePermission(shared.PermShopRead, shared.PermAdminAll))
				params.ShopsHandler.MountRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequirePermission(shared.PermShopWrite, shared.PermAdminAll))
				params.ModerationHandler.MountShopRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequirePermission(shared.PermAdminAll))
			r.Route("/roles", params.RBACHandler.MountRoleRoutes)
			r.Route("/permissions", params.RBACHandler.MountPermissionRoutes)
			r.Route("/assignments", params.RBACHandler.MountAssignmentRoutes)
			r.Route("/audit", params.AuditHandler.MountRoutes)
			if params.JobsHandler != nil {
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			}
		})
	})

	return r
}
