package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/response"
)

// RequireAdmin restricts a route to users holding the global ADMIN role.
func RequireAdmin(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxEmailKey)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		email, _ := v.(string)

		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
