package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/response"
)

// maxAttachmentSize caps uploads at 25 MiB.
const maxAttachmentSize = 25 << 20

type AttachmentHandler struct {
	service *services.AttachmentService
}

func NewAttachmentHandler(service *services.AttachmentService) (*AttachmentHandler, error) {
	if service == nil {
		return nil, stderrors.New("attachment handler: service is required")
	}
	return &AttachmentHandler{service: service}, nil
}

// POST /api/projects/:projectId/tasks/:taskId/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errors.NewBadRequest("multipart field 'file' is required"))
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		response.Error(c, errors.NewBadRequest("file exceeds the 25 MiB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errors.NewBadRequest("cannot read uploaded file"))
		return
	}
	defer file.Close()

	attachment, err := h.service.Upload(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), services.UploadAttachmentInput{
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Content:     file,
		}, email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, attachment)
}

// GET /api/projects/:projectId/tasks/:taskId/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	attachments, err := h.service.List(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, attachments)
}

// GET /api/projects/:projectId/tasks/:taskId/attachments/:attachmentId
func (h *AttachmentHandler) Download(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	download, err := h.service.Download(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), c.Param("attachmentId"), email)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+download.Attachment.Filename+`"`)
	c.Data(http.StatusOK, "application/octet-stream", download.Content)
}

// DELETE /api/projects/:projectId/tasks/:taskId/attachments/:attachmentId
func (h *AttachmentHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(requestContext(c),
		c.Param("projectId"), c.Param("taskId"), c.Param("attachmentId"), email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}
