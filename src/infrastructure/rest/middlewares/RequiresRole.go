package middlewares

import (
	"net/http"

	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequiresRoleMiddleware must run after AuthJWTMiddleware. Admin satisfies every role.
func RequiresRoleMiddleware(requiredRole string, loggerInstance *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(claimsContextKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token not provided"})
			return
		}

		userRole := c.GetString(roleContextKey)
		if userRole == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token: missing role claim"})
			return
		}

		if userRole != requiredRole && userRole != "admin" {
			loggerInstance.Warn("User does not have required role",
				zap.String("requiredRole", requiredRole),
				zap.String("userRole", userRole),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
