package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	// ContextRequestIDKey is the gin context key holding the request id.
	ContextRequestIDKey = "requestId"
)

// LoggingMiddleware assigns every request an id and logs one line per
// request once the handler chain has finished.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		attrs := []any{
			"requestId", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"clientIp", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.ErrorContext(c.Request.Context(), "request completed", attrs...)
		case status >= 400:
			logger.WarnContext(c.Request.Context(), "request completed", attrs...)
		default:
			logger.InfoContext(c.Request.Context(), "request completed", attrs...)
		}
	}
}
