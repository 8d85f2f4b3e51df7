// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"nadlan/internal/models"
)

var (
	settingKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]{0,63}$`)
	usernameRegex   = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
)

// Register registers all custom validators with the Gin binding engine and
// reports JSON field names in validation errors.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("user_status", validateUserStatus)
		_ = v.RegisterValidation("calculator_status", validateCalculatorStatus)
		_ = v.RegisterValidation("investment_preference", validateInvestmentPreference)
		_ = v.RegisterValidation("analysis_type", validateAnalysisType)
		_ = v.RegisterValidation("analysis_status", validateAnalysisStatus)
		_ = v.RegisterValidation("setting_key", validateSettingKey)
		_ = v.RegisterValidation("username", validateUsername)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleAdvisor, models.RoleInvestor:
		return true
	}
	return false
}

func validateUserStatus(fl validator.FieldLevel) bool {
	switch models.UserStatus(fl.Field().String()) {
	case models.UserStatusActive, models.UserStatusInactive:
		return true
	}
	return false
}

func validateCalculatorStatus(fl validator.FieldLevel) bool {
	switch models.CalculatorStatus(fl.Field().String()) {
	case models.CalculatorStatusDraft, models.CalculatorStatusActive, models.CalculatorStatusArchived:
		return true
	}
	return false
}

func validateInvestmentPreference(fl validator.FieldLevel) bool {
	switch models.InvestmentPreference(fl.Field().String()) {
	case models.PreferencePositiveCashflow, models.PreferenceCapitalAppreciation, models.PreferenceBalanced:
		return true
	}
	return false
}

func validateAnalysisType(fl validator.FieldLevel) bool {
	switch models.AnalysisType(fl.Field().String()) {
	case models.AnalysisTypeMortgage, models.AnalysisTypeCashflow, models.AnalysisTypeSensitivity,
		models.AnalysisTypeComparison, models.AnalysisTypeYield:
		return true
	}
	return false
}

func validateAnalysisStatus(fl validator.FieldLevel) bool {
	switch models.AnalysisStatus(fl.Field().String()) {
	case models.AnalysisStatusDraft, models.AnalysisStatusActive, models.AnalysisStatusArchived:
		return true
	}
	return false
}

func validateSettingKey(fl validator.FieldLevel) bool {
	return settingKeyRegex.MatchString(fl.Field().String())
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}
