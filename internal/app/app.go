package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"dataexplorer/internal/config"
	"dataexplorer/internal/errors"
	"dataexplorer/internal/infrastructure"
	customMiddleware "dataexplorer/internal/middleware"
	"dataexplorer/internal/services"
	handlers "dataexplorer/internal/transport/http"
	ws "dataexplorer/internal/websocket"
)

const AppName = "Data Explorer"

var (
	// Version is set at link time with -ldflags "-X dataexplorer/internal/app.Version=..."
	Version = "dev"
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Explorer      *services.ExplorerService
	WebSocketHub  *ws.Hub
	HealthService *services.HealthService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	FrontendFS    fs.FS // Embedded frontend filesystem, may be nil

	errorHandler *errors.ErrorHandler
	validator    *customMiddleware.ValidationMiddleware
	rateLimiter  *customMiddleware.RateLimiter
}

// NewApplication loads configuration and wires every component
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return newApplication(cfg, logger, frontendFS)
}

func newApplication(cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("build_id", BuildID))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		FrontendFS:    frontendFS,
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		app.shutdownServices(context.Background())
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	a.errorHandler = errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	a.validator = customMiddleware.NewValidationMiddleware(a.Logger, a.errorHandler)

	a.Explorer = services.NewExplorerService(a.Config, a.Metrics, a.Logger)

	a.WebSocketHub = ws.NewHub(a.Explorer, a.validator, a.Metrics, a.Config.WebSocket, a.Logger)
	a.Explorer.OnDatasetRemoved(a.WebSocketHub.DatasetRemoved)

	a.HealthService = services.NewHealthService(
		Version,
		BuildTime,
		BuildID,
		a.Explorer,
		a.WebSocketHub,
		a.Logger,
	)

	if a.Config.Security.RateLimit.Enabled {
		a.rateLimiter = customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.errorHandler,
			a.Logger,
		)
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Safe for the WebSocket upgrade: neither wraps the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// The live view keeps its connection open past any request timeout
	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.errorHandler, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Get("/ws/datasets/{id}", wsHandler.ServeWS)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}

	var groupErr error
	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(errors.RecoveryMiddleware(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if a.rateLimiter != nil {
			r.Use(a.rateLimiter.Handler)
		}

		a.setupAPIRoutes(r)
		groupErr = a.setupFrontendRoutes(r)
	})
	if groupErr != nil {
		return groupErr
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.stats(), a.errorHandler)
		r.Get("/stats", metricsHandler.GetStats)
		r.Get("/metrics", metricsHandler.GetMetrics)

		datasetHandler := handlers.NewDatasetHandler(a.Explorer, a.validator, a.Config.Upload.MaxBytes, a.Logger, a.errorHandler)
		r.With(a.validator.ContentTypeValidator("multipart/form-data")).
			Mount("/datasets", datasetHandler.Routes())
	})
}

// setupFrontendRoutes serves the dashboard and its static assets
func (a *Application) setupFrontendRoutes(r chi.Router) error {
	if a.FrontendFS == nil {
		a.Logger.Warn("No frontend filesystem, dashboard disabled")
		return nil
	}

	dashboard, err := handlers.NewDashboardHandler(a.FrontendFS, handlers.DashboardData{
		Title:          AppName,
		Version:        Version,
		PreviewRows:    a.Config.Explorer.PreviewRows,
		MaxSampleRows:  a.Config.Explorer.MaxSampleRows,
		SampleRowsStep: config.SampleRowsStep,
		MaxUploadMB:    a.Config.Upload.MaxBytes / (1 << 20),
	}, a.Logger, a.errorHandler)
	if err != nil {
		return fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	r.Get("/", dashboard.ServeDashboard)

	if static, err := fs.Sub(a.FrontendFS, "static"); err == nil {
		r.Route("/static", func(r chi.Router) {
			r.Use(middleware.Compress(5))
			r.Handle("/*", http.StripPrefix("/static", http.FileServer(http.FS(static))))
		})
	}
	return nil
}

// stats combines registry, cache and live view usage for /api/stats
func (a *Application) stats() services.DatasetStats {
	return statsFunc(func() map[string]interface{} {
		out := a.Explorer.Stats()
		out["websocket"] = a.WebSocketHub.GetHubMetrics()
		return out
	})
}

type statsFunc func() map[string]interface{}

func (f statsFunc) Stats() map[string]interface{} { return f() }

// corsConfig returns the CORS configuration for the API and dashboard
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Request-ID",
			"X-Row-Count",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
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

// Start starts the background services and the HTTP server
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Live view connections are hijacked, so Shutdown does not wait for them
	a.WebSocketHub.Stop()

	var serverErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		serverErr = fmt.Errorf("server shutdown error: %w", err)
	}

	a.shutdownServices(shutdownCtx)

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return serverErr
}

// shutdownServices stops background goroutines and flushes telemetry
func (a *Application) shutdownServices(ctx context.Context) {
	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	if a.Explorer != nil {
		a.Explorer.Close()
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
