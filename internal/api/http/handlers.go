package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/api/middleware"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/bridge"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/monitoring"
)

// Executor runs one command against the backend.
type Executor interface {
	Execute(ctx context.Context, command string) (bridge.Result, error)
}

// StatsSource reports the backend's state for health checks.
type StatsSource interface {
	Stats() bridge.Stats
}

// LevelController reads and changes the process log level at runtime.
type LevelController interface {
	SetLevel(level string) error
	Level() zapcore.Level
}

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Command string `json:"command"`
}

// Options configures the handlers.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Handlers contains all HTTP handlers
type Handlers struct {
	exec    Executor
	stats   StatsSource
	metrics *monitoring.Metrics
	logger  *zap.Logger
	opts    Options
	levels  LevelController
}

// NewHandlers creates a new handler set
func NewHandlers(exec Executor, stats StatsSource, metrics *monitoring.Metrics, logger *zap.Logger, opts Options) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	return &Handlers{
		exec:    exec,
		stats:   stats,
		metrics: metrics,
		logger:  logger.Named("http"),
		opts:    opts,
	}
}

// WithLevels enables the log level endpoints.
func (h *Handlers) WithLevels(levels LevelController) *Handlers {
	h.levels = levels
	return h
}

// LevelsEnabled reports whether WithLevels was called.
func (h *Handlers) LevelsEnabled() bool {
	return h.levels != nil
}

// Execute forwards one command to the backend and returns its JSON result
// verbatim.
func (h *Handlers) Execute(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxBodyBytes)

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidRequest, "invalid request: "+err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
	defer cancel()

	res, err := h.exec.Execute(ctx, req.Command)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Raw)
}

// fail writes the error response for an Execute failure.
func (h *Handlers) fail(c *gin.Context, err error) {
	code := bridge.Classify(err)
	status := StatusFor(code)

	if status >= http.StatusInternalServerError {
		h.logger.Warn("Command failed",
			zap.String("request_id", middleware.RequestID(c).String()),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	_ = c.Error(err)

	c.JSON(status, errorBody(code, Diagnostic(code, err)))
}

// NoRoute answers every request outside the single gateway route.
func (h *Handlers) NoRoute(c *gin.Context) {
	c.String(http.StatusNotFound, "not found")
}

// Health reports the backend's state. It answers 503 once the backend is
// unusable so load balancers can take the gateway out of rotation.
func (h *Handlers) Health(c *gin.Context) {
	stats := h.stats.Stats()

	status := http.StatusOK
	health := "healthy"
	if stats.State != bridge.StateRunning.String() {
		status = http.StatusServiceUnavailable
		health = "unhealthy"
	}

	body := gin.H{
		"status":  health,
		"backend": stats,
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(status, body)
}

// LogLevelRequest is the body of PUT /log-level.
type LogLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

// GetLogLevel reports the current log level.
func (h *Handlers) GetLogLevel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"level": h.levels.Level().String()})
}

// SetLogLevel changes the log level without a restart.
func (h *Handlers) SetLogLevel(c *gin.Context) {
	var req LogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	previous := h.levels.Level()
	if err := h.levels.SetLevel(req.Level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Log level changed",
		zap.Stringer("from", previous),
		zap.Stringer("to", h.levels.Level()),
	)
	c.JSON(http.StatusOK, gin.H{"level": h.levels.Level().String()})
}
