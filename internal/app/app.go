// Package app assembles the analytics server: configuration, logging,
// tracing, metrics, the dataset service, and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"accretioncli/internal/accretion"
	"accretioncli/internal/config"
	"accretioncli/internal/dataset"
	"accretioncli/internal/infrastructure"
	custommiddleware "accretioncli/internal/middleware"
	"accretioncli/internal/services"
	transporthttp "accretioncli/internal/transport/http"
)

// Application holds the wired server components.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *infrastructure.Metrics
	Service *services.AnalyticsService
	Router  chi.Router
	Server  *http.Server

	logCloser     io.Closer
	traceShutdown func(context.Context) error
}

// NewApplication loads configuration and wires every component.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig wires the application around an existing
// configuration, which tests use to inject ports and temp dirs.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	logger, logCloser, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	tracer, traceShutdown, err := infrastructure.InitTracing(cfg.Logging.Tracing, logger)
	if err != nil {
		if logCloser != nil {
			logCloser.Close()
		}
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	metrics := infrastructure.NewMetrics()
	loader := dataset.NewLoader(logger)
	service := services.NewAnalyticsService(
		loader,
		accretion.SpinThresholds{Low: cfg.Dataset.SpinLow, High: cfg.Dataset.SpinHigh},
		tracer,
		metrics,
		logger,
	)

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		Metrics:       metrics,
		Service:       service,
		logCloser:     logCloser,
		traceShutdown: traceShutdown,
	}
	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.StructuredLogger(a.Logger))
	r.Use(custommiddleware.Recoverer(a.Logger))

	r.Group(func(r chi.Router) {
		r.Use(custommiddleware.RequestMetrics(a.Metrics))
		if a.Config.Server.RateLimit.Enabled {
			r.Use(custommiddleware.RateLimit(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			))
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(chimiddleware.Timeout(30 * time.Second))

			transporthttp.NewDatasetHandler(a.Service, a.Config.Dataset.MaxUploadBytes, a.Logger).RegisterRoutes(r)
			transporthttp.NewAnalyticsHandler(a.Service, a.Logger).RegisterRoutes(r)
			transporthttp.NewHealthHandler(a.Service, a.Logger).RegisterRoutes(r)
		})
	})

	// metrics endpoint stays outside the rate-limited group
	r.Handle("/metrics", a.Metrics.Handler())

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until the context is cancelled or an interrupt arrives,
// then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", infrastructure.ServiceName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutdown signal received")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the server and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.traceShutdown != nil {
		if err := a.traceShutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down tracing", slog.String("error", err.Error()))
		}
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}

	a.Logger.Info("application shutdown complete")
	return nil
}
