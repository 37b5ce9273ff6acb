package auth

import (
	"net/http"
	"strings"

	"oracle-market/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const operatorKey = "operator"

// OperatorMiddleware only lets requests with a valid operator token through
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			logging.Logger.Debug("[Auth] token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}
		if claims.Role != RoleOperator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Operator role required",
			})
			return
		}

		c.Set(operatorKey, claims.Subject)
		c.Next()
	}
}

// GetOperator returns the subject of the operator token on the request
func GetOperator(c *gin.Context) (string, bool) {
	v, exists := c.Get(operatorKey)
	if !exists {
		return "", false
	}
	subject, ok := v.(string)
	return subject, ok
}
