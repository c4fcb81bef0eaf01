package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/billing"
	"github.com/quiltfolk/quiltfolk/internal/blocks"
	"github.com/quiltfolk/quiltfolk/internal/forum"
	"github.com/quiltfolk/quiltfolk/internal/observability"
	"github.com/quiltfolk/quiltfolk/internal/patterns"
	"github.com/quiltfolk/quiltfolk/internal/projects"
	"github.com/quiltfolk/quiltfolk/internal/shared"
	"github.com/quiltfolk/quiltfolk/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	BillingHandler  *billing.Handler
	PatternsHandler *patterns.Handler
	BlocksHandler   *blocks.Handler
	ProjectsHandler *projects.Handler
	ForumHandler    *forum.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Quiltfolk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.BillingHandler != nil {
			r.Route("/billing", params.BillingHandler.MountRoutes)
		}
		if params.PatternsHandler != nil {
			r.Route("/patterns", params.PatternsHandler.MountRoutes)
		}
		if params.BlocksHandler != nil {
			r.Route("/blocks", params.BlocksHandler.MountRoutes)
		}
		if params.ProjectsHandler != nil {
			r.Route("/projects", params.ProjectsHandler.MountRoutes)
		}
		if params.ForumHandler != nil {
			r.Route("/forum", params.ForumHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
