package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zmy-farmer/queue-router/internal/api/handlers"
	"github.com/zmy-farmer/queue-router/internal/api/middleware"
	"github.com/zmy-farmer/queue-router/internal/metrics"
	"github.com/zmy-farmer/queue-router/internal/storage"
	"github.com/zmy-farmer/queue-router/pkg/utils"
)

// Dependencies are the collaborators the HTTP API serves
type Dependencies struct {
	Queue    handlers.QueueRouter
	Consumer handlers.ConsumerStatusProvider
	Archive  storage.MessageArchive
	// Metrics is optional; without it /metrics is not served
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Router manages API routing and handlers
type Router struct {
	engine          *gin.Engine
	queueHandler    *handlers.QueueHandler
	consumerHandler *handlers.ConsumerHandler
	metrics         *metrics.Metrics
	logger          *slog.Logger
	startedAt       time.Time
}

// NewRouter creates a new API router with all handlers initialized
func NewRouter(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := &Router{
		engine:          gin.New(),
		queueHandler:    handlers.NewQueueHandler(deps.Queue),
		consumerHandler: handlers.NewConsumerHandler(deps.Queue, deps.Consumer, deps.Archive),
		metrics:         deps.Metrics,
		logger:          logger,
		startedAt:       time.Now(),
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures global middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.RequestIDMiddleware())

	// Logging middleware
	r.engine.Use(middleware.LoggingMiddleware(r.logger))

	if r.metrics != nil {
		r.engine.Use(r.metrics.GinMiddleware())
	}

	// Error handling middleware
	r.engine.Use(middleware.ErrorHandlerMiddleware(r.logger))

	// Recovery middleware (catch panics)
	r.engine.Use(gin.Recovery())
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"uptime": utils.DurationSince(r.startedAt).Round(time.Second).String(),
		})
	})

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		queue := v1.Group("/queue")
		{
			queue.POST("/switch", r.queueHandler.SwitchQueue)
			queue.POST("/send", r.queueHandler.SendMessage)
			queue.GET("/receive", r.queueHandler.ReceiveMessage)
			queue.GET("/receive/batch", r.queueHandler.ReceiveMessages)
			queue.GET("/info", r.queueHandler.GetQueueInfo)
			queue.POST("/clear", r.queueHandler.ClearQueue)
			queue.GET("/types", r.queueHandler.GetQueueTypes)
			queue.GET("/services", r.queueHandler.ListQueueServices)
		}

		consumer := v1.Group("/consumer")
		{
			consumer.POST("/send-test", r.consumerHandler.SendTestMessages)
			consumer.GET("/status", r.consumerHandler.GetStatus)
			consumer.GET("/archive", r.consumerHandler.ListArchive)
		}
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
