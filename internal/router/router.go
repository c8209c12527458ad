package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/config"
	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/handlers"
	"dev.copilot.gateway/internal/middleware"
	"dev.copilot.gateway/internal/models"
	"dev.copilot.gateway/internal/observability/metrics"
)

// Setup builds the gin engine with the full middleware chain and all
// routes. The rate limiter may be nil when rate limiting is disabled.
func Setup(cfg *config.Config, svc *copilot.Service, collector *metrics.Collector, limiter *middleware.RateLimiter, log *logrus.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Server.RequestLogging {
		r.Use(middleware.RequestLogger(log))
	}
	r.Use(middleware.Metrics(collector))
	if cfg.Server.EnableCORS {
		r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	}
	r.Use(middleware.MaxBodySize(cfg.Server.MaxBodySize))
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	chat := handlers.NewChatHandler(svc, collector, log)
	health := handlers.NewHealthHandler(svc)
	catalog := handlers.NewModelsHandler(svc)

	api := r.Group("/api")

	// Health stays reachable without a key so orchestrators can probe it.
	api.GET("/health", health.Health)

	protected := api.Group("")
	protected.Use(middleware.APIKeyAuth(cfg.Auth.APIKey, log))

	protected.GET("/models", catalog.Models)

	validated := protected.Group("")
	validated.Use(middleware.RequireJSON(), middleware.ValidateChatRequest())
	validated.POST("/chat", chat.Chat)
	validated.POST("/stream", chat.Stream)

	r.GET("/metrics", gin.WrapH(collector.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
	})

	return r
}
