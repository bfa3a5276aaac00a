package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/pkg/response"
)

type ActivityHandler struct {
	service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) (*ActivityHandler, error) {
	if service == nil {
		return nil, stderrors.New("activity handler: service is required")
	}
	return &ActivityHandler{service: service}, nil
}

// GET /api/activity (admin only)
func (h *ActivityHandler) List(c *gin.Context) {
	opts := services.ActivityListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
		Filters: services.ActivityFilters{
			UserID:   strings.TrimSpace(c.Query("user_id")),
			Action:   strings.TrimSpace(c.Query("action")),
			Resource: strings.TrimSpace(c.Query("resource")),
		},
	}

	if since := strings.TrimSpace(c.Query("since")); since != "" {
		if ts, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Filters.Since = &ts
		}
	}
	if until := strings.TrimSpace(c.Query("until")); until != "" {
		if ts, err := time.Parse(time.RFC3339, until); err == nil {
			opts.Filters.Until = &ts
		}
	}

	logs, total, err := h.service.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{
		Page:    opts.Page,
		PerPage: opts.PageSize,
		Total:   int(total),
	})
}
