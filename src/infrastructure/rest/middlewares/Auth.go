package middlewares

import (
	"net/http"
	"strings"

	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const (
	claimsContextKey = "claims"
	roleContextKey   = "userRole"
)

// AuthJWTMiddleware rejects requests without a valid HS256 access token signed with secret.
// The parsed claims are stored in the context for RequiresRoleMiddleware.
func AuthJWTMiddleware(secret string, loggerInstance *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token not provided"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			loggerInstance.Warn("Rejected access token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if t, ok := claims["type"].(string); ok && t != "access" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token type mismatch"})
			return
		}

		c.Set(claimsContextKey, claims)
		if role, ok := claims["role"].(string); ok {
			c.Set(roleContextKey, role)
		}
		c.Next()
	}
}
