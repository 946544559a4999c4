package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New. Nil handlers are skipped.
type Handlers struct {
	Monitoring *handlers.MonitoringHandler
	LaneLog    *handlers.LaneLogHandler
	RFID       *handlers.RFIDHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	if h.Monitoring != nil {
		h.Monitoring.Register(api.Group("/monitoring"))
	}
	if h.LaneLog != nil {
		h.LaneLog.Register(api.Group("/daily-lane-log"))
	}
	if h.RFID != nil {
		h.RFID.Register(api.Group("/rfid/pending"))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
