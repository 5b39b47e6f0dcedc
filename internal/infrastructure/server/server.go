package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	handlers "github.com/GriffinCanCode/CTerminal/bridge/internal/api/http"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/api/middleware"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/bridge"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/shared/paths"
)

// Server wraps the gateway and admin listeners and the backend they share.
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	bridge  *bridge.Bridge
	metrics *monitoring.Metrics

	gateway *http.Server
	admin   *http.Server
}

// NewServer creates a new server instance. The backend is not spawned until
// Run.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	root, err := paths.ResolveRoot(cfg.Backend.Root)
	if err != nil {
		return nil, err
	}
	exe := paths.ResolveExecutable(root, cfg.Backend.Executable)

	logger.Info("Initializing CTerminal bridge",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("backend", exe),
		zap.String("root", root),
	)
	if err := paths.CheckExecutable(exe); err != nil {
		logger.Warn("Backend executable not found; run make in the backend directory", zap.Error(err))
	}

	metrics := monitoring.NewMetrics()

	b := bridge.New(bridge.Config{
		Process: bridge.ProcessConfig{
			Path: exe,
			Dir:  root,
		},
		MaxLineBytes: cfg.Backend.MaxLineBytes,
		MaxPending:   cfg.Backend.MaxPending,
	}, logger.Logger).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.NewHandlers(b, b, metrics, logger.Component("http"), handlers.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}).WithLevels(logger)

	s := &Server{
		config:  cfg,
		logger:  logger,
		bridge:  b,
		metrics: metrics,
		gateway: &http.Server{
			Handler:           GatewayHandler(cfg, h, metrics, logger.Component("access")),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if cfg.Admin.Enabled {
		s.admin = &http.Server{
			Handler:           AdminHandler(h, metrics),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// GatewayHandler builds the public router: POST /execute and nothing else.
func GatewayHandler(cfg *config.Config, h *handlers.Handlers, metrics *monitoring.Metrics, logger *zap.Logger) http.Handler {
	router := gin.New()
	router.HandleMethodNotAllowed = false

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	chain := []gin.HandlerFunc{}
	if cfg.RateLimit.PerClient() {
		perClient := middleware.DefaultRateLimitConfig()
		perClient.RequestsPerSecond = cfg.RateLimit.ClientRequestsPerSecond
		perClient.Burst = cfg.RateLimit.ClientBurst
		if cfg.RateLimit.ClientIdleTTL > 0 {
			perClient.IdleTTL = cfg.RateLimit.ClientIdleTTL
		}
		logger.Info("Per-client rate limiting enabled",
			zap.Int("rps", perClient.RequestsPerSecond),
			zap.Int("burst", perClient.Burst),
			zap.Duration("idle_ttl", perClient.IdleTTL),
		)
		chain = append(chain, middleware.RateLimit(perClient))
	}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		chain = append(chain, middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	chain = append(chain, h.Execute)

	router.POST("/execute", chain...)
	router.NoRoute(h.NoRoute)

	if cfg.Server.Compression {
		return gzhttp.GzipHandler(router)
	}
	return router
}

// AdminHandler builds the operator router with health, metrics and, when the
// handlers carry a level controller, the log level endpoints.
func AdminHandler(h *handlers.Handlers, metrics *monitoring.Metrics) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if h.LevelsEnabled() {
		router.GET("/log-level", h.GetLogLevel)
		router.PUT("/log-level", h.SetLogLevel)
	}
	router.NoRoute(h.NoRoute)

	return router
}

// Run spawns the backend, listens on the configured addresses and serves
// until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	gw, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Addr(), err)
	}

	var admin net.Listener
	if s.admin != nil {
		admin, err = net.Listen("tcp", s.config.Admin.Addr())
		if err != nil {
			gw.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.config.Admin.Addr(), err)
		}
	}

	return s.Serve(ctx, gw, admin)
}

// Serve is Run on existing listeners. admin may be nil when the admin
// listener is disabled.
func (s *Server) Serve(ctx context.Context, gw, admin net.Listener) error {
	// A backend that fails to spawn is not fatal: the gateway still serves
	// and every command reports the spawn error.
	if err := s.bridge.Start(); err != nil {
		s.logger.Warn("Serving without a backend", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", gw.Addr().String()))
		return serve(s.gateway, gw)
	})
	if s.admin != nil && admin != nil {
		g.Go(func() error {
			s.logger.Info("Starting admin server", zap.String("addr", admin.Addr().String()))
			return serve(s.admin, admin)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func serve(srv *http.Server, ln net.Listener) error {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdown drains HTTP traffic first, then ends the backend's input.
func (s *Server) shutdown() error {
	s.logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.gateway.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("gateway shutdown: %w", err))
	}
	if s.admin != nil {
		if err := s.admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin shutdown: %w", err))
		}
	}
	if err := s.bridge.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("backend shutdown: %w", err))
	}

	s.logger.Info("Shutdown complete")
	return errors.Join(errs...)
}
