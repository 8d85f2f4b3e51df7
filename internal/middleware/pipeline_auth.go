package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "nadlan/internal/errors"
)

// APIKeyHeader carries the shared secret of the rate-sync job and any other
// unattended caller of the /api/pipeline routes.
const APIKeyHeader = "X-API-Key"

var (
	errPipelineNotConfigured = &apperrors.AppError{Code: "PIPELINE_NOT_CONFIGURED", Message: "Set PIPELINE_API_KEY to enable the pipeline routes", StatusCode: http.StatusServiceUnavailable}
	errInvalidAPIKey         = &apperrors.AppError{Code: "INVALID_API_KEY", Message: "The " + APIKeyHeader + " header is missing or wrong", StatusCode: http.StatusUnauthorized}
)

// PipelineAuthMiddleware admits a request when its APIKeyHeader equals
// apiKey. Pipeline callers have no user account, so nothing is put on the
// context; handlers audit them under a fixed actor. An empty apiKey keeps
// the routes closed with 503 rather than open.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	want := []byte(apiKey)
	return func(c *gin.Context) {
		switch {
		case len(want) == 0:
			AbortWithError(c, errPipelineNotConfigured)
		case subtle.ConstantTimeCompare([]byte(c.GetHeader(APIKeyHeader)), want) != 1:
			AbortWithError(c, errInvalidAPIKey)
		default:
			c.Next()
		}
	}
}
