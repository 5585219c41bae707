package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealership/backend/internal/domain/workflow"
)

// RequireRoles gates a route to the given roles. Record-level checks
// such as ownership still happen in the workflow authorizer; this only
// keeps obviously unauthorized actors off management routes.
func RequireRoles(roles ...workflow.Role) gin.HandlerFunc {
	allowed := make(map[workflow.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}

		if !allowed[actor.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Actor is not permitted to perform this action",
				},
			})
			return
		}

		c.Next()
	}
}
