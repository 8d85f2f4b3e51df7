package handlers

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/middleware"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
	"nadlan/internal/policy"
	"nadlan/internal/services"
)

// getPrincipal extracts the authenticated caller from the Gin context.
// Returns ErrUnauthorized if not present.
func getPrincipal(c *gin.Context) (policy.Principal, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return policy.Principal{}, apperrors.ErrUnauthorized
	}
	role, _ := c.Get(middleware.ContextRole)
	r, _ := role.(models.UserRole)
	return policy.Principal{UserID: userID, Role: r}, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.Invalid(param, "must be a valid id")
	}
	return id.String(), nil
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// bindJSON decodes and validates a request body.
func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return apperrors.Validation(err)
	}
	return nil
}

// bindPatch decodes and validates a partial update and returns the JSON
// field names present in the body, sorted. The names feed the field
// allow-lists of the access policy.
func bindPatch(c *gin.Context, dest interface{}) ([]string, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unreadable request body")
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &present); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Request body must be a JSON object")
	}
	if err := binding.JSON.BindBody(body, dest); err != nil {
		return nil, apperrors.Validation(err)
	}

	fields := make([]string, 0, len(present))
	for name := range present {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields, nil
}

func bindPage(c *gin.Context) (pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperrors.Validation(err)
	}
	return page, nil
}

// ownerResolver walks from a record up to the user that owns its calculator.
type ownerResolver struct {
	calculators services.CalculatorServicer
}

func (o ownerResolver) calculatorOwner(calculatorID string) (string, error) {
	calc, err := o.calculators.GetCalculatorByID(calculatorID)
	if err != nil {
		return "", err
	}
	return calc.UserID, nil
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code             string                 `json:"code"`
	Message          string                 `json:"message"`
	Fields           []apperrors.FieldError `json:"fields,omitempty"`
	DisallowedFields []string               `json:"disallowedFields,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
