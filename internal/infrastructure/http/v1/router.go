package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaennil/guide_helper/backend/tileview/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = telemetry.RequestIDHeader

func NewRouter(handler *handler.Handler, l logger.Logger, telemetryEnabled bool) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware("/api/v1/healthz", "/metrics"))
	}

	r.Use(ginZapLogger(l))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)
	v1.GET("/tileset", handler.Tileset)
	v1.GET("/viewport", handler.Viewport)
	v1.PUT("/viewport", handler.SetViewport)
	v1.GET("/frame", handler.Frame)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(handler.NoRoute)

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		rl := logger.With(l, "request_id", requestID)
		c.Set("logger", rl)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), rl))

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		rl.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
