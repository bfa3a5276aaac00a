package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/pkg/response"
)

type LabelHandler struct {
	service *services.LabelService
}

func NewLabelHandler(service *services.LabelService) (*LabelHandler, error) {
	if service == nil {
		return nil, stderrors.New("label handler: service is required")
	}
	return &LabelHandler{service: service}, nil
}

type labelRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=64"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type labelUpdateRequest struct {
	Name  string `json:"name" validate:"omitempty,min=1,max=64"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// POST /api/labels (admin only)
func (h *LabelHandler) Create(c *gin.Context) {
	var body labelRequest
	if !bindAndValidate(c, &body) {
		return
	}

	label, err := h.service.Create(requestContext(c), services.LabelInput{
		Name:  body.Name,
		Color: body.Color,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, label)
}

// GET /api/labels
func (h *LabelHandler) List(c *gin.Context) {
	labels, err := h.service.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, labels)
}

// GET /api/labels/:id
func (h *LabelHandler) Get(c *gin.Context) {
	label, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, label)
}

// PATCH /api/labels/:id (admin only)
func (h *LabelHandler) Update(c *gin.Context) {
	var body labelUpdateRequest
	if !bindAndValidate(c, &body) {
		return
	}

	label, err := h.service.Update(requestContext(c), c.Param("id"), services.LabelInput{
		Name:  body.Name,
		Color: body.Color,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, label)
}

// DELETE /api/labels/:id (admin only)
func (h *LabelHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}
