package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/trace"

	apperrors "certaudit/internal/errors"
	"certaudit/internal/middleware"
)

// RouterConfig carries the dependencies of NewRouter. Metrics, Recorder
// and Tracer are optional.
type RouterConfig struct {
	Audits       AuditRunner
	Scores       Scorer
	Health       HealthChecker
	Metrics      http.Handler
	Recorder     apperrors.RequestRecorder
	Tracer       trace.Tracer
	Logger       *slog.Logger
	Timeout      time.Duration
	MaxBodyBytes int64
	RatePerSec   float64
	Burst        int
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) chi.Router {
	errorHandler := apperrors.NewErrorHandler(cfg.Logger, false)

	r := chi.NewRouter()
	if cfg.Tracer != nil {
		r.Use(middleware.Tracing(cfg.Tracer))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apperrors.NewErrorMiddleware(errorHandler, cfg.Logger, cfg.Recorder).Handler)
	r.Use(apperrors.RecoveryMiddleware(errorHandler))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/health", NewHealthHandler(cfg.Health, cfg.Logger).HealthCheck)

		r.Group(func(r chi.Router) {
			if cfg.RatePerSec > 0 {
				r.Use(middleware.NewRateLimiter(cfg.RatePerSec, max(cfg.Burst, 1), cfg.Logger).Handler)
			}
			if cfg.MaxBodyBytes > 0 {
				r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
			}
			if cfg.Timeout > 0 {
				r.Use(middleware.Timeout(cfg.Timeout))
			}
			r.Mount("/audits", NewAuditHandler(cfg.Audits, cfg.Logger, errorHandler).Routes())
			r.Mount("/scores", NewScoreHandler(cfg.Scores, cfg.Logger, errorHandler).Routes())
		})
	})
	return r
}
