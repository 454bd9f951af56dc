package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/logger"
)

// errorBody is the envelope every failed request answers with.
func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Handlers that already wrote a response are left alone. Errors that are not
// an *AppError become INTERNAL_ERROR so driver messages never reach clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		log := logger.Get().With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
		)

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			log.Errorw("unhandled error", "error", err.Error())
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			if appErr.StatusCode >= http.StatusInternalServerError {
				log.Errorw("request failed", "code", appErr.Code, "internal", appErr.Internal.Error())
			} else {
				log.Warnw("request rejected", "code", appErr.Code, "internal", appErr.Internal.Error())
			}
		}

		c.JSON(appErr.StatusCode, errorBody(appErr.Code, appErr.Message))
	}
}
