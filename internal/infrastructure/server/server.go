package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	adminhttp "github.com/GriffinCanCode/AgentOS/appletd/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/domain/am"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/domain/applet"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/ipc"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the admin HTTP server and the IPC host
type Server struct {
	router    *gin.Engine
	applets   *applet.Registry
	directory *service.Registry
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
	gatherer  prometheus.Gatherer
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing appletd",
		zap.String("admin_addr", cfg.Admin.Addr()),
		zap.Bool("admin_enabled", cfg.Admin.Enabled),
		zap.Int("queue_depth", cfg.Session.QueueDepth),
	)

	// Private registry so several servers can coexist in one process
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	applets := applet.NewRegistry().WithMetrics(metrics)
	seeder := applet.NewSeeder(applets, cfg.Applets.SeedFile, logger.Named("seeder").Logger)
	if _, _, err := seeder.Seed(); err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to seed applets: %w", err)
	}

	directory := service.NewRegistry(
		ipc.WithLogger(logger.Named("ipc").Logger),
		ipc.WithObserver(metrics),
		ipc.WithQueueDepth(cfg.Session.QueueDepth),
		ipc.WithRateLimit(cfg.Session.RateLimitRPS, cfg.Session.RateLimitBurst),
	)
	broker := am.NewApplicationProxyService(applets, logger.Named("am").Logger).WithMetrics(metrics)
	if err := directory.Register(broker); err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to register %s: %w", am.ServiceName, err)
	}
	logger.Info("Service registered", zap.String("service", am.ServiceName))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger.Named("admin").Logger))
	router.Use(monitoring.Middleware(metrics))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Admin.CORSOrigins) > 0 {
		cors.AllowOrigins = cfg.Admin.CORSOrigins
	}
	router.Use(middleware.CORS(cors))

	if cfg.Admin.RateLimitRPS > 0 {
		limit := middleware.DefaultRateLimitConfig()
		limit.RequestsPerSecond = cfg.Admin.RateLimitRPS
		limit.Burst = cfg.Admin.RateLimitBurst
		if limit.Burst <= 0 {
			limit.Burst = limit.RequestsPerSecond
		}
		logger.Info("Admin rate limiting enabled",
			zap.Int("rps", limit.RequestsPerSecond),
			zap.Int("burst", limit.Burst),
		)
		router.Use(middleware.RateLimit(limit))
	}

	handlers := adminhttp.NewHandlers(applets, directory, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/services", handlers.ListServices)
	router.GET("/applets", handlers.ListApplets)
	router.GET("/applets/:pid", handlers.GetApplet)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	router.GET("/metrics/json", handlers.MetricsJSON)

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		applets:   applets,
		directory: directory,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
		gatherer:  reg,
	}, nil
}

// Router returns the admin HTTP handler
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Directory returns the service directory clients connect through
func (s *Server) Directory() *service.Registry {
	return s.directory
}

// Applets returns the applet registry
func (s *Server) Applets() *applet.Registry {
	return s.applets
}

// Gatherer returns the Prometheus registry backing /metrics
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// Run serves the admin API until ctx is done, then shuts it down. With the
// admin API disabled it just waits for ctx.
func (s *Server) Run(ctx context.Context) error {
	if !s.config.Admin.Enabled {
		s.logger.Info("Admin API disabled")
		<-ctx.Done()
		return nil
	}

	addr := s.config.Admin.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting admin HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down admin HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin server shutdown: %w", err)
	}
	return nil
}

// Close releases server resources
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.directory.Unregister(am.ServiceName)
	s.logger.Info("Applet registry at shutdown", zap.Int("applets", s.applets.Stats().Total))

	s.logger.Sync()
	return nil
}
