package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/logger"
)

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError writes err as the JSON error envelope. AppErrors keep their
// status and code; anything else is logged and reported as INTERNAL_ERROR so
// internal details never reach the client.
func WriteError(c *gin.Context, err error) {
	appErr := resolve(c, err)
	c.JSON(appErr.StatusCode, ErrorBody(appErr))
}

// AbortWithError writes err and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	appErr := resolve(c, err)
	c.AbortWithStatusJSON(appErr.StatusCode, ErrorBody(appErr))
}

// ErrorBody renders the {"error": {...}} envelope.
func ErrorBody(appErr *apperrors.AppError) gin.H {
	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	if len(appErr.DisallowedFields) > 0 {
		body["disallowedFields"] = appErr.DisallowedFields
	}
	return gin.H{"error": body}
}

func resolve(c *gin.Context, err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
				"request_id", c.GetString(requestIDKey),
			)
		}
		return appErr
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"request_id", c.GetString(requestIDKey),
	)
	return apperrors.ErrInternalServer
}
