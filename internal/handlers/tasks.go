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

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) (*TaskHandler, error) {
	if service == nil {
		return nil, stderrors.New("task handler: service is required")
	}
	return &TaskHandler{service: service}, nil
}

type createTaskRequest struct {
	Name          string     `json:"name" validate:"required,min=1,max=256"`
	Description   string     `json:"description" validate:"max=4096"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate       *time.Time `json:"due_date"`
	AssigneeEmail string     `json:"assignee_email" validate:"required,email"`
	LabelIDs      []string   `json:"label_ids" validate:"omitempty,dive,uuid4"`
}

type updateTaskRequest struct {
	Name          *string    `json:"name" validate:"omitempty,min=1,max=256"`
	Description   *string    `json:"description" validate:"omitempty,max=4096"`
	Priority      *string    `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status        *string    `json:"status" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED"`
	DueDate       *time.Time `json:"due_date"`
	AssigneeEmail *string    `json:"assignee_email" validate:"omitempty,email"`
	LabelIDs      *[]string  `json:"label_ids" validate:"omitempty,dive,uuid4"`
}

// POST /api/projects/:projectId/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body createTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	task, err := h.service.Create(requestContext(c), c.Param("projectId"), services.CreateTaskInput{
		Name:          body.Name,
		Description:   body.Description,
		Priority:      models.TaskPriority(body.Priority),
		DueDate:       body.DueDate,
		AssigneeEmail: body.AssigneeEmail,
		LabelIDs:      body.LabelIDs,
	}, email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// GET /api/projects/:projectId/tasks
func (h *TaskHandler) List(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	result, err := h.service.List(requestContext(c), c.Param("projectId"),
		services.ListTasksOptions{Page: page, PageSize: perPage}, email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Tasks, &response.Meta{
		Page:       result.Page,
		PerPage:    result.PageSize,
		Total:      int(result.Total),
		TotalPages: result.TotalPages,
	})
}

// GET /api/projects/:projectId/tasks/:taskId
func (h *TaskHandler) Get(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	task, err := h.service.Get(requestContext(c), c.Param("projectId"), c.Param("taskId"), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// PATCH /api/projects/:projectId/tasks/:taskId
func (h *TaskHandler) Update(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body updateTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	input := services.UpdateTaskInput{
		Name:          body.Name,
		Description:   body.Description,
		DueDate:       body.DueDate,
		AssigneeEmail: body.AssigneeEmail,
		LabelIDs:      body.LabelIDs,
	}
	if body.Priority != nil {
		priority := models.TaskPriority(*body.Priority)
		input.Priority = &priority
	}
	if body.Status != nil {
		status := models.TaskStatus(*body.Status)
		input.Status = &status
	}

	task, err := h.service.Update(requestContext(c), c.Param("projectId"), c.Param("taskId"), input, email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DELETE /api/projects/:projectId/tasks/:taskId
func (h *TaskHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(requestContext(c), c.Param("projectId"), c.Param("taskId"), email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}
