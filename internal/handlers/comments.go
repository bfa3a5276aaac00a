package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/response"
)

type CommentHandler struct {
	service *services.CommentService
}

func NewCommentHandler(service *services.CommentService) (*CommentHandler, error) {
	if service == nil {
		return nil, stderrors.New("comment handler: service is required")
	}
	return &CommentHandler{service: service}, nil
}

type commentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=4096"`
}

// POST /api/projects/:projectId/tasks/:taskId/comments
func (h *CommentHandler) Create(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body commentRequest
	if !bindAndValidate(c, &body) {
		return
	}

	comment, err := h.service.Create(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), body.Text, email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// GET /api/projects/:projectId/tasks/:taskId/comments
func (h *CommentHandler) List(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	comments, err := h.service.List(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// PATCH /api/projects/:projectId/tasks/:taskId/comments/:commentId
func (h *CommentHandler) Update(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body commentRequest
	if !bindAndValidate(c, &body) {
		return
	}

	comment, err := h.service.Update(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), c.Param("commentId"), body.Text, email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment)
}

// DELETE /api/projects/:projectId/tasks/:taskId/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), c.Param("commentId"), email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}
