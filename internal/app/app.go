// Package app wires configuration, services, transport and background
// workers into the web server binary.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idxlens/internal/config"
	apierrors "idxlens/internal/errors"
	"idxlens/internal/infrastructure"
	customMiddleware "idxlens/internal/middleware"
	"idxlens/internal/services"
	transport "idxlens/internal/transport/http"
	ws "idxlens/internal/websocket"
)

// Version is stamped at build time
var Version = "dev"

// Application is the dependency container for the web server
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	WebSocketHub  *ws.Hub

	DataService       *services.DataService
	AnalyticsService  *services.AnalyticsService
	OperationsService *services.OperationsService
	HealthService     *services.HealthService

	errorHandler *apierrors.ErrorHandler
}

// NewApplication loads configuration and builds the full dependency graph
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app, err := newApplicationWith(cfg, paths, logger, otelProviders)
	if err != nil {
		return nil, err
	}

	logger.Info("Application initialized",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("data_dir", paths.DataDir))

	return app, nil
}

// newApplicationWith assembles the graph from pre-built infrastructure.
// Split out so tests can inject a temp-dir path set and a quiet logger.
func newApplicationWith(cfg *config.Config, paths *config.Paths, logger *slog.Logger, otelProviders *infrastructure.OTelProviders) (*Application, error) {
	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	app.WebSocketHub = ws.NewHub(logger)
	app.errorHandler = apierrors.NewErrorHandler(logger, cfg.Logging.Development)

	var metrics *infrastructure.PipelineMetrics
	if otelProviders != nil {
		var err error
		metrics, err = infrastructure.CreatePipelineMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
	}

	app.DataService = services.NewDataService(cfg, paths, logger)
	app.AnalyticsService = services.NewAnalyticsService(cfg.Analytics, paths, logger)
	app.OperationsService = services.NewOperationsService(cfg, paths, app.WebSocketHub, metrics, logger)
	app.HealthService = services.NewHealthService(Version, paths, app.WebSocketHub, logger)

	app.setupRouter()
	app.createServer()

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
	}))

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	dataHandler := transport.NewDataHandler(a.DataService, a.Logger, a.errorHandler)
	analyticsHandler := transport.NewAnalyticsHandler(a.AnalyticsService, a.DataService, a.Logger, a.errorHandler)
	operationsHandler := transport.NewOperationsHandler(a.OperationsService, a.Logger, a.errorHandler)
	healthHandler := transport.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", dataHandler.Routes())
		r.Mount("/analytics", analyticsHandler.Routes())
		r.Mount("/operations", operationsHandler.Routes())
	})

	r.Get("/healthz", healthHandler.HealthCheck)
	r.Get("/healthz/ready", healthHandler.ReadinessCheck)
	r.Get("/healthz/live", healthHandler.LivenessCheck)

	r.Get("/ws", a.WebSocketHub.ServeWS)

	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (a *Application) Start(ctx context.Context) error {
	a.WebSocketHub.Start()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("HTTP server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	return a.Stop()
}

// Stop shuts the server and background workers down
func (a *Application) Stop() error {
	a.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("server shutdown: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("otel shutdown: %w", err)
		}
	}

	// Give in-flight log writes a moment before closing the file.
	time.Sleep(50 * time.Millisecond)
	infrastructure.CloseLogFile()

	return firstErr
}
