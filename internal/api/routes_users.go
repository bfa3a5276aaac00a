package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, requireAdmin gin.HandlerFunc) {
	users := api.Group("/users")
	{
		users.GET("/me", handler.Me)
		users.PATCH("/me", handler.UpdateProfile)
		users.POST("/me/email", handler.ChangeEmail)
		users.POST("/me/password", handler.ChangePassword)
		users.POST("/me/confirm", handler.ConfirmChange)
		users.PATCH("/:id/role", requireAdmin, handler.UpdateRole)
	}
}
