package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type key string

const TraceIdKey key = "traceId"

// WithTraceId returns a copy of ctx carrying the trace id.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}

// TraceIdFromContext returns the trace id stored by WithTraceId, or "Unknown".
func TraceIdFromContext(ctx context.Context) string {
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok || traceId == "" {
		return "Unknown"
	}
	return traceId
}

func GetTraceIdOfRequest(c *gin.Context) string {
	return TraceIdFromContext(c.Request.Context())
}
