package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/handlers"
)

func registerLabelRoutes(api *gin.RouterGroup, handler *handlers.LabelHandler, requireAdmin gin.HandlerFunc) {
	labels := api.Group("/labels")
	{
		labels.GET("", handler.List)
		labels.GET("/:id", handler.Get)
		labels.POST("", requireAdmin, handler.Create)
		labels.PATCH("/:id", requireAdmin, handler.Update)
		labels.DELETE("/:id", requireAdmin, handler.Delete)
	}
}
