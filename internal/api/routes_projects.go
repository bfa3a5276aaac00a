package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/handlers"
)

func registerProjectRoutes(
	api *gin.RouterGroup,
	projects *handlers.ProjectHandler,
	tasks *handlers.TaskHandler,
	comments *handlers.CommentHandler,
	attachments *handlers.AttachmentHandler,
) {
	group := api.Group("/projects")
	{
		group.POST("", projects.Create)
		group.GET("", projects.List)
		group.GET("/:projectId", projects.Get)
		group.PATCH("/:projectId", projects.Update)
		group.DELETE("/:projectId", projects.Delete)

		group.POST("/:projectId/members", projects.AddMember)
		group.DELETE("/:projectId/members/:email", projects.RemoveMember)

		group.POST("/:projectId/tasks", tasks.Create)
		group.GET("/:projectId/tasks", tasks.List)
		group.GET("/:projectId/tasks/:taskId", tasks.Get)
		group.PATCH("/:projectId/tasks/:taskId", tasks.Update)
		group.DELETE("/:projectId/tasks/:taskId", tasks.Delete)

		group.POST("/:projectId/tasks/:taskId/comments", comments.Create)
		group.GET("/:projectId/tasks/:taskId/comments", comments.List)
		group.PATCH("/:projectId/tasks/:taskId/comments/:commentId", comments.Update)
		group.DELETE("/:projectId/tasks/:taskId/comments/:commentId", comments.Delete)

		group.POST("/:projectId/tasks/:taskId/attachments", attachments.Upload)
		group.GET("/:projectId/tasks/:taskId/attachments", attachments.List)
		group.GET("/:projectId/tasks/:taskId/attachments/:attachmentId", attachments.Download)
		group.DELETE("/:projectId/tasks/:taskId/attachments/:attachmentId", attachments.Delete)
	}
}
