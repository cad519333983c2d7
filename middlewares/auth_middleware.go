package middlewares

import (
	"strings"

	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextClaims = "claims"
	ContextRole   = "role"
	ContextToken  = "token"
)

// AuthMiddleware requires a valid bearer token. Browsers cannot set headers
// on websocket upgrades, so a token query parameter is accepted as well.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if header := c.GetHeader("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				utils.RespondError(c, utils.Unauthorized("invalid authorization header format"))
				return
			}
			tokenString = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		} else {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			utils.RespondError(c, utils.Unauthorized("authorization header missing"))
			return
		}

		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextToken, tokenString)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthMiddleware.
func ClaimsFrom(c *gin.Context) (*utils.CustomClaims, bool) {
	value, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.CustomClaims)
	return claims, ok
}
