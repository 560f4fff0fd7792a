package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

const (
	// KeyLogger, KeyTraceID and KeyUserEmail are shared between gin.Context and context.Context.
	KeyLogger    = "logger"
	KeyTraceID   = "traceID"
	KeyUserEmail = "userEmail"
)

// WithValue stores v under key in a context using the package key type.
func WithValue(ctx context.Context, key string, v any) context.Context {
	return context.WithValue(ctx, ctxKey(key), v)
}

// Value reads a value stored with WithValue.
func Value(ctx context.Context, key string) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(ctxKey(key))
}

// TraceID returns the request trace id, or "".
func TraceID(ctx context.Context) string {
	s, _ := Value(ctx, KeyTraceID).(string)
	return s
}

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(KeyLogger); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	// fall back to ctx-based enrichment
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns a logger from context if set, otherwise attempts to enrich
// base with trace_id/user_email from context values.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := Value(ctx, KeyLogger).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid := TraceID(ctx); tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if email, ok := Value(ctx, KeyUserEmail).(string); ok && email != "" {
		fields = append(fields, "user_email", email)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
