package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/handlers"
)

func registerActivityRoutes(api *gin.RouterGroup, handler *handlers.ActivityHandler, requireAdmin gin.HandlerFunc) {
	api.GET("/activity", requireAdmin, handler.List)
}
