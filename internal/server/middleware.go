package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fiberlink/backoffice/internal/actorcontext"
	"github.com/fiberlink/backoffice/internal/observability/metrics"
)

// ActorMiddleware lifts the caller identity headers into the request
// context. Missing headers default to an anonymous admin; authentication is
// handled upstream of this service.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Actor")
		actorType := c.GetHeader("X-Actor-Type")
		switch actorType {
		case actorcontext.ActorTypeAdmin, actorcontext.ActorTypeEngineer, actorcontext.ActorTypeSystem:
		default:
			actorType = actorcontext.ActorTypeAdmin
		}

		ctx := actorcontext.WithActor(c.Request.Context(), actorType, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func LoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
