package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zhouzirui/roundtable/backend/internal/config"
	catalogHandler "github.com/zhouzirui/roundtable/backend/internal/handler/catalog"
	debateHandler "github.com/zhouzirui/roundtable/backend/internal/handler/debate"
	"github.com/zhouzirui/roundtable/backend/internal/handler/live"
	middlewarePkg "github.com/zhouzirui/roundtable/backend/internal/middleware"
	catalogModel "github.com/zhouzirui/roundtable/backend/internal/model/catalog"
	debateService "github.com/zhouzirui/roundtable/backend/internal/service/debate"
	"github.com/zhouzirui/roundtable/backend/pkg/utils"
)

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Manager *debateService.Manager
	Catalog catalogModel.Store
	Logger  *zap.Logger

	// Recorder and Gatherer are optional; /metrics is only served when
	// Gatherer is set and metrics are enabled.
	Recorder middlewarePkg.HTTPRecorder
	Gatherer prometheus.Gatherer
}

// NewRouter wires HTTP routes to core services. ctx bounds background
// housekeeping such as rate limiter cleanup.
func NewRouter(ctx context.Context, cfg config.Config, deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.Server.AllowedOrigins))
	if deps.Recorder != nil {
		r.Use(middlewarePkg.Metrics(deps.Recorder))
	}

	// Create handlers
	debates := debateHandler.New(deps.Manager, logger)
	catalogs := catalogHandler.New(deps.Catalog)
	tails := live.New(deps.Manager, logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.RateLimiter(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger))

		catalogs.RegisterRoutes(api)

		// Default session
		debates.RegisterSessionRoutes(api)
		tails.RegisterRoutes(api)

		// Additional sessions
		debates.RegisterRoutes(api)
		api.Route("/sessions/{sessionID}", func(s chi.Router) {
			debates.RegisterSessionAdmin(s)
			debates.RegisterSessionRoutes(s)
			tails.RegisterRoutes(s)
		})
	})

	return r
}
