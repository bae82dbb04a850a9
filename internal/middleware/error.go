package middleware

import (
	"github.com/GoPolymarket/opa/internal/pkg/apperrors"
	"github.com/GoPolymarket/opa/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle if there are errors
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.Wrap(c.Errors.Last().Err)

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Type,
			"client_ip", c.ClientIP(),
		}

		message := appErr.Message
		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "Internal Server Error", logFields...)
			if appErr.Type == apperrors.ErrInternal {
				message = "internal error"
			}
		} else {
			logger.FromContext(c.Request.Context()).Warn(appErr.Message, logFields...)
		}

		c.JSON(appErr.HTTPStatus, gin.H{
			"success": false,
			"data": gin.H{
				"message": message,
				"code":    appErr.Type,
			},
		})
	}
}
