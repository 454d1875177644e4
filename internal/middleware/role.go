package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mhersche/docgate/internal/models"
	"github.com/mhersche/docgate/pkg/errors"
	"github.com/mhersche/docgate/pkg/response"
)

// RequireRole restricts a route to the listed roles. Runs after Auth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := Actor(c)
		if !ok {
			response.Error(c, errors.ErrUnauthenticated)
			c.Abort()
			return
		}

		if _, ok := allowed[actor.Role]; !ok {
			response.Error(c, errors.ErrAccessDenied)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin restricts a route to department and global admins.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleDeptAdmin, models.RoleGlobalAdmin)
}
