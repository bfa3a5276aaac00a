package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appValidator "github.com/dkovalov/taskhub/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFormatValidationErrorMessages(t *testing.T) {
	err := appValidator.ValidateStruct(createProjectRequest{
		Name:         "",
		ManagerEmail: "not-an-email",
	})
	require.Error(t, err)

	msg := formatValidationError(err)
	require.Contains(t, msg, "name is required")
	require.Contains(t, msg, "manager email must be a valid email address")
}

func TestFormatValidationErrorOneofListsChoices(t *testing.T) {
	err := appValidator.ValidateStruct(addMemberRequest{
		Email: "alice@example.com",
		Level: "OWNER",
	})
	require.Error(t, err)

	msg := formatValidationError(err)
	require.Contains(t, msg, "level must be one of: VIEWER, MEMBER, MANAGER")
}

func TestFormatValidationErrorFallsBackForUnknownInput(t *testing.T) {
	require.Equal(t, "invalid request payload", formatValidationError(nil))
	require.Equal(t, "invalid request payload", formatValidationError(appValidator.ValidationErrors{}))
}

func TestParseIntQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/tasks?page=3&per_page=abc", nil)

	require.Equal(t, 3, parseIntQuery(c, "page", 1))
	require.Equal(t, 20, parseIntQuery(c, "per_page", 20))
	require.Equal(t, 50, parseIntQuery(c, "missing", 50))
}
