package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worldskandi/call-companion-ai/internal/auth"
)

// RequireAnyRole allows access if the caller has any of the provided roles.
// operator bypasses all checks.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if IsOperator(role) {
			c.Next()
			return
		}
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireRoom rejects room-scoped tokens used against another room's path.
// Tokens without a room claim pass.
func RequireRoom(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scoped := auth.Room(c.Request.Context())
		if scoped == "" {
			c.Next()
			return
		}
		if scoped != c.Param(param) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token not valid for this room"})
			return
		}
		c.Next()
	}
}
