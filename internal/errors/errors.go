// Package errors provides custom error types for the Nadlan API.
// All service-layer errors should use AppError so that responses are consistent
// and never leak storage details to clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code             string       `json:"code"`
	Message          string       `json:"message"`
	StatusCode       int          `json:"-"`
	Internal         error        `json:"-"`
	Fields           []FieldError `json:"fields,omitempty"`
	DisallowedFields []string     `json:"disallowedFields,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so that wrapped copies of a sentinel compare equal to it.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Invalid builds an INVALID_INPUT error for a single field.
func Invalid(field, message string) *AppError {
	return &AppError{
		Code:       ErrInvalidInput.Code,
		Message:    fmt.Sprintf("%s: %s", field, message),
		StatusCode: ErrInvalidInput.StatusCode,
		Fields:     []FieldError{{Field: field, Message: message}},
	}
}

// Validation converts a binding error into an INVALID_INPUT AppError carrying
// one FieldError per failed field. Non-validator errors (malformed JSON, type
// mismatches) become a single body-level message.
func Validation(err error) *AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return WithMessage(ErrInvalidInput, err.Error())
	}

	fields := make([]FieldError, 0, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := lowerFirst(fe.Field())
		fields = append(fields, FieldError{Field: name, Message: describeTag(fe)})
		names = append(names, name)
	}
	return &AppError{
		Code:       ErrInvalidInput.Code,
		Message:    "Invalid fields: " + strings.Join(names, ", "),
		StatusCode: ErrInvalidInput.StatusCode,
		Fields:     fields,
	}
}

// Forbidden builds a FORBIDDEN error naming the fields the caller may not change.
func Forbidden(disallowed []string) *AppError {
	sorted := append([]string(nil), disallowed...)
	sort.Strings(sorted)
	return &AppError{
		Code:             ErrForbidden.Code,
		Message:          "Not allowed to modify: " + strings.Join(sorted, ", "),
		StatusCode:       ErrForbidden.StatusCode,
		DisallowedFields: sorted,
	}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid id"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrInactiveUser       = &AppError{Code: "INACTIVE_USER", Message: "User account is inactive", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput     = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound         = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer   = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrConcurrentUpdate = &AppError{Code: "CONCURRENT_UPDATE", Message: "The record changed while it was being updated, retry the request", StatusCode: http.StatusConflict}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
)

// Calculator errors.
var (
	ErrCalculatorNotFound = &AppError{Code: "CALCULATOR_NOT_FOUND", Message: "Calculator not found", StatusCode: http.StatusNotFound}
)

// Property errors.
var (
	ErrPropertyNotFound = &AppError{Code: "PROPERTY_NOT_FOUND", Message: "Property not found", StatusCode: http.StatusNotFound}
	ErrPropertyInUse    = &AppError{Code: "PROPERTY_IN_USE", Message: "Property is referenced by existing investments", StatusCode: http.StatusConflict}
)

// Investment errors.
var (
	ErrInvestmentNotFound = &AppError{Code: "INVESTMENT_NOT_FOUND", Message: "Investment not found", StatusCode: http.StatusNotFound}
)

// Analysis errors.
var (
	ErrAnalysisNotFound = &AppError{Code: "ANALYSIS_NOT_FOUND", Message: "Analysis not found", StatusCode: http.StatusNotFound}
)

// Setting errors.
var (
	ErrSettingNotFound = &AppError{Code: "SETTING_NOT_FOUND", Message: "Setting not found", StatusCode: http.StatusNotFound}
)
