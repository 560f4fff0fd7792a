package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fuelflow/fuelflow/pkg/logctx"
)

const HeaderRequestID = "X-Request-ID"

// TraceMiddleware adds a trace ID to the request context.
// It reads X-Request-ID if provided by the client; otherwise generates a UUID.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderRequestID)
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.NewString()
		}

		c.Set(logctx.KeyTraceID, traceID)
		c.Request = c.Request.WithContext(logctx.WithValue(c.Request.Context(), logctx.KeyTraceID, traceID))
		c.Writer.Header().Set(HeaderRequestID, traceID)
		c.Next()
	}
}
