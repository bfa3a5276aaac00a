package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dkovalov/taskhub/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentEmail returns the authenticated caller's email from the request context.
func currentEmail(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.CtxEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
