package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certaudit/internal/config"
	"certaudit/internal/fetch"
	"certaudit/internal/files"
	"certaudit/internal/infrastructure"
	"certaudit/internal/services"
	"certaudit/internal/store"
	handlers "certaudit/internal/transport/http"
	"certaudit/pkg/contracts"
)

const (
	AppName = "certaudit"
	// apiRatePerSec bounds audit and score requests; each one reads and
	// writes workbooks.
	apiRatePerSec = 5
	apiBurst      = 10
)

// Application wires configuration, telemetry, storage and services.
type Application struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.BusinessMetrics
	Store   *store.Store
	Fetcher *fetch.Fetcher
	Audits  *services.AuditService
	Scores  *services.ScoreService
	Health  *services.HealthService
	Router  chi.Router
	Server  *http.Server
}

// New builds the application. The store is only opened when a DSN is
// configured.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	paths, err := cfg.ResolvePaths("")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		OTel:    providers,
		Metrics: metrics,
	}

	if cfg.Store.Enabled() {
		a.Store, err = store.Open(ctx, cfg.Store, logger)
		if err != nil {
			providers.Shutdown(ctx)
			return nil, err
		}
	}

	a.initializeServices()
	a.setupRouter()
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

func (a *Application) initializeServices() {
	a.Fetcher = fetch.NewFetcher(a.Config.Source, files.NewManager(a.Paths, a.Logger), a.Metrics, a.Logger)

	opts := []services.AuditServiceOption{
		services.WithDownloader(a.Fetcher),
		services.WithReportRecorder(a.Metrics),
	}
	var pinger services.Pinger
	if a.Store != nil {
		opts = append(opts, services.WithRunStore(a.Store))
		pinger = a.Store
	}

	a.Audits = services.NewAuditService(a.Config, a.Paths, a.Logger, opts...)
	a.Scores = services.NewScoreService(a.Audits, a.Config, a.Paths, a.Metrics, a.Logger)
	a.Health = services.NewHealthService(contracts.Version, a.Paths, pinger, a.Logger)
}

func (a *Application) setupRouter() {
	a.Router = handlers.NewRouter(handlers.RouterConfig{
		Audits:       a.Audits,
		Scores:       a.Scores,
		Health:       a.Health,
		Metrics:      a.OTel.PrometheusHTTP,
		Recorder:     a.Metrics,
		Tracer:       a.OTel.Tracer,
		Logger:       a.Logger,
		Timeout:      a.Config.Server.WriteTimeout,
		MaxBodyBytes: a.Config.Server.MaxBodyBytes,
		RatePerSec:   apiRatePerSec,
		Burst:        apiBurst,
	})
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// the server down.
func (a *Application) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *Application) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("address", ln.Addr().String()),
			slog.String("version", contracts.Version))
		errCh <- a.Server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close releases the store and flushes telemetry.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}
	if a.OTel != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.OTel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
