package validator

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	Register()
}

type sample struct {
	Role       string  `json:"role" binding:"required,user_role"`
	Status     *string `json:"status" binding:"omitempty,calculator_status"`
	Preference string  `json:"investmentPreference" binding:"omitempty,investment_preference"`
	Type       string  `json:"type" binding:"omitempty,analysis_type"`
	Key        string  `json:"key" binding:"omitempty,setting_key"`
	Username   string  `json:"username" binding:"omitempty,username"`
}

func strPtr(s string) *string { return &s }

func TestCustomValidators(t *testing.T) {
	tests := []struct {
		name      string
		in        sample
		wantField string
	}{
		{"valid advisor", sample{Role: "advisor", Status: strPtr("active"), Preference: "balanced", Type: "yield", Key: "exchangeRate", Username: "dana.k"}, ""},
		{"bad role", sample{Role: "admin"}, "role"},
		{"bad calculator status", sample{Role: "investor", Status: strPtr("deleted")}, "status"},
		{"bad preference", sample{Role: "investor", Preference: "speculation"}, "investmentPreference"},
		{"bad analysis type", sample{Role: "investor", Type: "irr"}, "type"},
		{"bad setting key", sample{Role: "investor", Key: "1 bad key"}, "key"},
		{"short username", sample{Role: "investor", Username: "ab"}, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if verrs[0].Field() != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, verrs[0].Field())
			}
		})
	}
}
