package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askdesk/internal/api/control"
	"github.com/liliang-cn/askdesk/internal/api/middleware"
	"github.com/liliang-cn/askdesk/internal/api/stream"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	controlHandler *control.Handler,
	streamHandler *stream.Handler,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Control and event API (requires API key when configured)
	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.Auth(cfg.APIKey))
	controlHandler.RegisterRoutes(apiGroup)
	streamHandler.RegisterRoutes(apiGroup)

	return r
}
