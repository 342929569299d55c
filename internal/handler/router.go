package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skycam/edgeagent/internal/config"
	"skycam/edgeagent/internal/handler/middleware"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	proxyHandler *ProxyHandler,
	controlHandler *ControlHandler,
	pushHandler *PushHandler,
	eventsHandler *EventsHandler,
	hub *WindowsHub,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Control plane
	internal := r.Group("/internal")
	{
		internal.POST("/message", controlHandler.Message)
		internal.POST("/push", pushHandler.Receive)
		internal.POST("/notifications/click", pushHandler.Click)
		internal.POST("/events", eventsHandler.Create)
		internal.GET("/events", eventsHandler.List)
		internal.GET("/windows", hub.Subscribe)
	}

	// Everything else is an intercepted fetch.
	r.NoRoute(proxyHandler.Handle)

	return r
}
