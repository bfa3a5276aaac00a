package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/response"
)

type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) (*ProjectHandler, error) {
	if service == nil {
		return nil, stderrors.New("project handler: service is required")
	}
	return &ProjectHandler{service: service}, nil
}

type createProjectRequest struct {
	Name         string     `json:"name" validate:"required,min=1,max=128"`
	Description  string     `json:"description" validate:"max=2048"`
	EndDate      *time.Time `json:"end_date"`
	ManagerEmail string     `json:"manager_email" validate:"omitempty,email"`
}

type updateProjectRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string    `json:"description" validate:"omitempty,max=2048"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Status      *string    `json:"status" validate:"omitempty,oneof=INITIATED IN_PROGRESS COMPLETED"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Level string `json:"level" validate:"required,oneof=VIEWER MEMBER MANAGER"`
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body createProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	project, err := h.service.Create(requestContext(c), services.CreateProjectInput{
		Name:         body.Name,
		Description:  body.Description,
		EndDate:      body.EndDate,
		ManagerEmail: body.ManagerEmail,
	}, email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, project)
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	summaries, err := h.service.ListForUser(requestContext(c), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summaries)
}

// GET /api/projects/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	project, err := h.service.GetByID(requestContext(c), c.Param("projectId"), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// PATCH /api/projects/:projectId
func (h *ProjectHandler) Update(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body updateProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	input := services.UpdateProjectInput{
		Name:        body.Name,
		Description: body.Description,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	}
	if body.Status != nil {
		status := models.ProjectStatus(*body.Status)
		input.Status = &status
	}

	project, err := h.service.Update(requestContext(c), c.Param("projectId"), input, email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// DELETE /api/projects/:projectId
func (h *ProjectHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(requestContext(c), c.Param("projectId"), email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// POST /api/projects/:projectId/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body addMemberRequest
	if !bindAndValidate(c, &body) {
		return
	}

	member, err := h.service.AddMember(requestContext(c),
		c.Param("projectId"), body.Email, models.AccessLevel(body.Level), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, member)
}

// DELETE /api/projects/:projectId/members/:email
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.RemoveMember(requestContext(c),
		c.Param("projectId"), c.Param("email"), email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "removed"})
}
