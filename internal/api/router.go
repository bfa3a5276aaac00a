package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/app"
	iauth "github.com/dkovalov/taskhub/internal/auth"
	"github.com/dkovalov/taskhub/internal/handlers"
	"github.com/dkovalov/taskhub/internal/middleware"
	"github.com/dkovalov/taskhub/internal/services"
)

// Dependencies bundles the constructed services the router wires up.
type Dependencies struct {
	DB          *gorm.DB
	Config      *app.Config
	JWT         *iauth.JWTService
	Users       *services.UserService
	Projects    *services.ProjectService
	Tasks       *services.TaskService
	Comments    *services.CommentService
	Labels      *services.LabelService
	Attachments *services.AttachmentService
	Activity    *services.ActivityService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	registerHealthRoutes(r, deps.Config, deps.DB)
	registerMonitoringRoutes(r, deps.Config)

	userHandler, err := handlers.NewUserHandler(deps.Users)
	if err != nil {
		return nil, err
	}
	projectHandler, err := handlers.NewProjectHandler(deps.Projects)
	if err != nil {
		return nil, err
	}
	taskHandler, err := handlers.NewTaskHandler(deps.Tasks)
	if err != nil {
		return nil, err
	}
	commentHandler, err := handlers.NewCommentHandler(deps.Comments)
	if err != nil {
		return nil, err
	}
	labelHandler, err := handlers.NewLabelHandler(deps.Labels)
	if err != nil {
		return nil, err
	}
	attachmentHandler, err := handlers.NewAttachmentHandler(deps.Attachments)
	if err != nil {
		return nil, err
	}
	activityHandler, err := handlers.NewActivityHandler(deps.Activity)
	if err != nil {
		return nil, err
	}

	// Public registration
	r.POST("/api/users/register", userHandler.Register)

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(deps.JWT))

	requireAdmin := middleware.RequireAdmin(deps.Users)

	registerUserRoutes(api, userHandler, requireAdmin)
	registerProjectRoutes(api, projectHandler, taskHandler, commentHandler, attachmentHandler)
	registerLabelRoutes(api, labelHandler, requireAdmin)
	registerActivityRoutes(api, activityHandler, requireAdmin)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
