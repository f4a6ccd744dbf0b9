package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

const traceHeader = "X-Trace-Id"

// Logger assigns every request a trace id, echoes it back in X-Trace-Id and
// logs the request once it has been served.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := c.Request.Header.Get(traceHeader)
		if traceId == "" {
			traceId = uuid.NewString()
		}
		c.Request = c.Request.WithContext(ctxmanage.WithTraceId(c.Request.Context(), traceId))
		c.Header(traceHeader, traceId)

		start := time.Now()
		c.Next()

		slog.Info("request served",
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("Path", c.Request.URL.Path),
			slog.Int("Status", c.Writer.Status()),
			slog.Duration("Latency", time.Since(start)),
		)
	}
}
