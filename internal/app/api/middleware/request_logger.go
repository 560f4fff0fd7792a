package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/logctx"
)

// RequestLoggerMiddleware attaches a request-scoped logger enriched with
// trace_id to gin.Context and the request context.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := base.With("trace_id", c.GetString(logctx.KeyTraceID))
		c.Set(logctx.KeyLogger, reqLogger)
		c.Request = c.Request.WithContext(logctx.WithValue(c.Request.Context(), logctx.KeyLogger, reqLogger))
		c.Next()
	}
}
