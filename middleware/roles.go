package middleware

import (
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
)

// RequireCapability must run after RequireAuth.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			utils.RespondWithUnauthorized(c, "Authentication token is required")
			return
		}
		if !claims.Can(capability) {
			utils.RespondWithForbidden(c, "Access Denied")
			return
		}
		c.Next()
	}
}
