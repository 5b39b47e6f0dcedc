package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/shared/id"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// RequestLogger assigns each request an ID and writes one access log line
// when it completes. A valid incoming X-Request-ID is reused.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := id.RequestID(c.GetHeader(RequestIDHeader))
		if reqID == "" || !id.IsValid(reqID.String()) {
			reqID = id.NewRequestID()
		}
		c.Set(requestIDKey, reqID)
		c.Header(RequestIDHeader, reqID.String())

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", reqID.String()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("Request failed", fields...)
		case status >= 400:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}

// RequestID returns the ID assigned by RequestLogger.
func RequestID(c *gin.Context) id.RequestID {
	if v, ok := c.Get(requestIDKey); ok {
		if reqID, ok := v.(id.RequestID); ok {
			return reqID
		}
	}
	return ""
}
