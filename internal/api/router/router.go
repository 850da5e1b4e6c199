package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinicdesk/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinicdesk/internal/http/middleware"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Console            *handlers.ConsoleHandler
	Sessions           session.Store
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter guards the routes that reach the clinic backend. Nil
	// disables limiting.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all console routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Console.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Everything else needs a stored session before any backend call.
	r.Group(func(protected chi.Router) {
		protected.Use(httpmiddleware.RequireSession(cfg.Sessions, cfg.Logger))
		protected.Get("/menu", cfg.Console.Menu)

		protected.Group(func(backend chi.Router) {
			if cfg.RateLimiter != nil {
				backend.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			backend.Get("/lab-tests/grouped", cfg.Console.LabTestsGrouped)
			backend.Get("/lab-results/grouped", cfg.Console.LabResultsGrouped)
			backend.Get("/patients/{id}/summary", cfg.Console.PatientSummary)
		})
		protected.Post("/{kind}/expand", cfg.Console.Expand)
	})

	return r
}
