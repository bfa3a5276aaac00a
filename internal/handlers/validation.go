package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/response"
	appValidator "github.com/dkovalov/taskhub/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and runs its validate tags.
// On failure it writes the 400 response itself and returns false, so handlers
// read as a single guard clause.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}
	return true
}

// formatValidationError turns validation failures into one client-facing
// sentence per field. The cases cover the tags the request structs in this
// package actually use.
func formatValidationError(err error) string {
	var ve appValidator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		var msg string
		switch failure.Tag {
		case "required":
			msg = field + " is required"
		case "email":
			msg = field + " must be a valid email address"
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", field, failure.Param)
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", field, failure.Param)
		case "len":
			msg = fmt.Sprintf("%s must be exactly %s characters", field, failure.Param)
		case "oneof":
			msg = fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(failure.Param), ", "))
		case "uuid4":
			msg = field + " must be a valid UUID"
		case "hexcolor":
			msg = field + " must be a hex color like #1a2b3c"
		default:
			msg = fmt.Sprintf("%s failed validation: %s", field, failure.Tag)
			if failure.Param != "" {
				msg += "=" + failure.Param
			}
		}
		messages = append(messages, msg)
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	return strings.ToLower(strings.ReplaceAll(name, "_", " "))
}

// parseIntQuery reads an integer query parameter, falling back on absent or
// malformed values rather than failing the request.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
