package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vaultmeter/vaultmeter/adapters/metrics"
	_ "github.com/vaultmeter/vaultmeter/docs" // swagger docs
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

// RouterConfig holds the router's collaborators.
type RouterConfig struct {
	API     *Handler
	Health  *HealthHandler
	Auth    AuthConfig
	Metrics *metrics.Collector // nil disables /metrics and request metrics
	Version string
	Timeout time.Duration // per-request deadline, default 60s
	Swagger bool
}

// NewRouter creates the main HTTP router.
func NewRouter(cfg RouterConfig, logger zerolog.Logger) chi.Router {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil)
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	// Health endpoints (no auth required)
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	if cfg.Swagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Get("/version", VersionHandler(cfg.Version))

	if cfg.API != nil {
		r.Group(func(r chi.Router) {
			r.Use(NewAuthMiddleware(cfg.Auth, cfg.Metrics, logger))
			r.Mount("/api", cfg.API.Routes())
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusNotFound, "route_not_found", "Not Found", r.Method+" "+r.URL.Path+" is not a known route"))
	})

	return r
}
