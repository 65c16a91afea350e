package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mataleao/backend/internal/models"
	"github.com/mataleao/backend/pkg/response"
)

// RequireRole gates a route to the listed roles. It must run after JWT,
// which populates the role in the context.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(models.Role)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
