package middlewares

import (
	"errors"
	"net/http"

	domainErrors "go-campaign-dispatcher/src/domain/errors"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns the last error attached with ctx.Error into a JSON response,
// unless the handler already wrote one.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var appErr *domainErrors.AppError
		if errors.As(err, &appErr) {
			c.JSON(statusFor(appErr.Type), gin.H{"error": appErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

func statusFor(errType string) int {
	switch errType {
	case domainErrors.NotFound:
		return http.StatusNotFound
	case domainErrors.ValidationError:
		return http.StatusBadRequest
	case domainErrors.ResourceAlreadyExists, domainErrors.Conflict:
		return http.StatusConflict
	case domainErrors.NotAuthenticated:
		return http.StatusUnauthorized
	case domainErrors.NotAuthorized:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
