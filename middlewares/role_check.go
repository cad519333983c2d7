package middlewares

import (
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
)

// RoleCheck lets the request through when the authenticated role is one of
// roles. It must run after AuthMiddleware.
func RoleCheck(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			utils.RespondError(c, utils.Unauthorized("unauthorized"))
			return
		}
		if r, ok := role.(string); !ok || !allowed[r] {
			utils.RespondError(c, utils.Forbidden("%v access required", roles))
			return
		}
		c.Next()
	}
}
