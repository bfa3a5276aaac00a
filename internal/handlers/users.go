package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/response"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) (*UserHandler, error) {
	if service == nil {
		return nil, stderrors.New("user handler: service is required")
	}
	return &UserHandler{service: service}, nil
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=64"`
	LastName  string `json:"last_name" validate:"max=64"`
}

type updateProfileRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=64"`
	FirstName *string `json:"first_name" validate:"omitempty,max=64"`
	LastName  *string `json:"last_name" validate:"omitempty,max=64"`
}

type changeEmailRequest struct {
	NewEmail        string `json:"new_email" validate:"required,email"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type confirmChangeRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

// POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var body registerRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.service.Register(requestContext(c), services.RegisterInput{
		Email:     body.Email,
		Username:  body.Username,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, user)
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.service.GetByEmail(requestContext(c), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PATCH /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body updateProfileRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.service.UpdateProfile(requestContext(c), email, services.UpdateProfileInput{
		Username:  body.Username,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// POST /api/users/me/email
func (h *UserHandler) ChangeEmail(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body changeEmailRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.ChangeEmail(requestContext(c), email, body.NewEmail, body.CurrentPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"status": "verification code sent"})
}

// POST /api/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body changePasswordRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.ChangePassword(requestContext(c), email, body.CurrentPassword, body.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"status": "verification code sent"})
}

// POST /api/users/me/confirm
func (h *UserHandler) ConfirmChange(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body confirmChangeRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.service.ConfirmChange(requestContext(c), email, body.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PATCH /api/users/:id/role (admin only)
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var body updateRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.service.UpdateRole(requestContext(c), c.Param("id"), models.UserRole(body.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
