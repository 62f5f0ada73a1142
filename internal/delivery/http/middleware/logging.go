package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/delivery/http/handler"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
	"github.com/grapeapp/grape-backend/internal/logger"
)

// RequestLogger logs every request once it completes and records it in metrics.
func RequestLogger(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.ObserveHTTP(c.Request.Method, route, status, elapsed)

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if uid, ok := c.Get(handler.ContextUserID); ok {
			args = append(args, "user_id", uid)
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", args...)
		case route == "/health":
			logger.Debug("request", args...)
		default:
			logger.Info("request", args...)
		}
	}
}
