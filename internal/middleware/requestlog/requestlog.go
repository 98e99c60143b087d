// Package requestlog provides request logging middleware
package requestlog

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id to and from clients
const HeaderRequestID = "X-Request-ID"

// ContextKey is the gin context key holding the request id
const ContextKey = "request_id"

// New returns a middleware that tags each request with an id and logs its
// outcome. An incoming X-Request-ID is reused.
func New(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextKey, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(startTime),
			"size", c.Writer.Size(),
		}

		switch {
		case status >= 500:
			logger.Error("Request completed", fields...)
		case status >= 400:
			logger.Warn("Request completed", fields...)
		default:
			logger.Debug("Request completed", fields...)
		}
	}
}

// RequestID returns the id assigned to the request, if any
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKey)
}
