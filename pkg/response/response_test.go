package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/dkovalov/taskhub/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writeAndDecode(t *testing.T, write func(c *gin.Context)) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	write(ctx)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestSuccessEnvelope(t *testing.T) {
	code, resp := writeAndDecode(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"id": "p1"})
	})

	require.Equal(t, http.StatusCreated, code)
	require.True(t, resp.Success)
	require.Nil(t, resp.Error)
	require.Nil(t, resp.Meta)
}

func TestSuccessWithMetaCarriesPagination(t *testing.T) {
	_, resp := writeAndDecode(t, func(c *gin.Context) {
		SuccessWithMeta(c, http.StatusOK, []string{"a", "b"}, &Meta{Page: 2, PerPage: 10, Total: 35, TotalPages: 4})
	})

	require.NotNil(t, resp.Meta)
	require.Equal(t, 2, resp.Meta.Page)
	require.Equal(t, 35, resp.Meta.Total)
	require.Equal(t, 4, resp.Meta.TotalPages)
}

func TestErrorUsesAppErrorStatusAndCode(t *testing.T) {
	code, resp := writeAndDecode(t, func(c *gin.Context) {
		Error(c, appErrors.ErrForbidden)
	})

	require.Equal(t, appErrors.ErrForbidden.StatusCode, code)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, appErrors.ErrForbidden.Code, resp.Error.Code)
}

func TestErrorHidesUnclassifiedErrors(t *testing.T) {
	code, resp := writeAndDecode(t, func(c *gin.Context) {
		Error(c, errors.New("pq: relation does not exist"))
	})

	require.Equal(t, http.StatusInternalServerError, code)
	require.NotNil(t, resp.Error)
	require.NotContains(t, resp.Error.Message, "relation")
}

func TestErrorNilDefaultsToInternal(t *testing.T) {
	code, resp := writeAndDecode(t, func(c *gin.Context) {
		Error(c, nil)
	})

	require.Equal(t, http.StatusInternalServerError, code)
	require.False(t, resp.Success)
}
