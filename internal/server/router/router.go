package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/server/handlers"
)

// Handlers groups the route handlers. Webhook and Metrics are optional.
type Handlers struct {
	Eggs    *handlers.EggHandler
	Catalog *handlers.CatalogHandler
	Webhook *handlers.WebhookHandler
	Metrics http.Handler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")

	eggs := api.Group("/eggs")
	eggs.GET("", h.Eggs.List)
	eggs.POST("", h.Eggs.Create)
	eggs.GET("/:id", h.Eggs.Get)
	eggs.PUT("/:id", h.Eggs.Update)
	eggs.DELETE("/:id", h.Eggs.Delete)
	eggs.PUT("/:id/weights", h.Eggs.PutWeights)
	eggs.POST("/:id/interpolate", h.Eggs.Interpolate)
	eggs.GET("/:id/recommendations", h.Eggs.Recommendations)
	eggs.GET("/:id/overview", h.Eggs.Overview)
	eggs.POST("/:id/export", h.Eggs.Export)

	eggTypes := api.Group("/egg-types")
	eggTypes.GET("", h.Catalog.ListEggTypes)
	eggTypes.POST("", h.Catalog.CreateEggType)
	eggTypes.PUT("/:id", h.Catalog.UpdateEggType)
	eggTypes.DELETE("/:id", h.Catalog.DeleteEggType)

	pinHoles := api.Group("/pin-hole-types")
	pinHoles.GET("", h.Catalog.ListPinHoleTypes)
	pinHoles.POST("", h.Catalog.CreatePinHoleType)
	pinHoles.PUT("/:id", h.Catalog.UpdatePinHoleType)
	pinHoles.DELETE("/:id", h.Catalog.DeletePinHoleType)

	api.GET("/settings/recommendations", h.Catalog.GetSettings)
	api.PUT("/settings/recommendations", h.Catalog.PutSettings)

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
		api.POST("/digest/send", h.Webhook.SendDigest)
	}
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
