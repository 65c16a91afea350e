package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mataleao/backend/internal/auth"
	"github.com/mataleao/backend/pkg/response"
)

// Context keys set by the JWT middleware for downstream handlers.
const (
	// ContextUserID holds the authenticated user's uuid.UUID.
	ContextUserID = "user_id"
	// ContextUserRole holds the authenticated user's models.Role.
	ContextUserRole = "user_role"
	// ContextUserEmail holds the authenticated user's email.
	ContextUserEmail = "user_email"
)

// JWT authenticates requests with a Bearer token and stores the resolved
// claims in the gin context. Requests without a valid token are rejected with
// 401 before reaching the handler.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
