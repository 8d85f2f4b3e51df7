package testutil

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertCounters checks a calculator's stored counters against the expected
// values and against the live child rows.
func AssertCounters(t *testing.T, db *gorm.DB, calculatorID string, wantInvestments, wantAnalyses int) {
	t.Helper()

	var calc models.Calculator
	if err := db.Where("id = ?", calculatorID).First(&calc).Error; err != nil {
		t.Fatalf("failed to load calculator %s: %v", calculatorID, err)
	}

	var liveInvestments, liveAnalyses int64
	db.Model(&models.Investment{}).Where("calculator_id = ?", calculatorID).Count(&liveInvestments)
	db.Model(&models.Analysis{}).Where("calculator_id = ?", calculatorID).Count(&liveAnalyses)

	if calc.InvestmentOptionsCount != wantInvestments || int64(calc.InvestmentOptionsCount) != liveInvestments {
		t.Errorf("investmentOptionsCount: stored %d, live %d, want %d", calc.InvestmentOptionsCount, liveInvestments, wantInvestments)
	}
	if calc.AnalysesCount != wantAnalyses || int64(calc.AnalysesCount) != liveAnalyses {
		t.Errorf("analysesCount: stored %d, live %d, want %d", calc.AnalysesCount, liveAnalyses, wantAnalyses)
	}
}

// AssertCalculatorsCount checks a user's stored calculatorsCount against the
// expected value and the live calculator rows.
func AssertCalculatorsCount(t *testing.T, db *gorm.DB, userID string, want int) {
	t.Helper()

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		t.Fatalf("failed to load user %s: %v", userID, err)
	}
	var live int64
	db.Model(&models.Calculator{}).Where("user_id = ?", userID).Count(&live)

	if user.CalculatorsCount != want || int64(user.CalculatorsCount) != live {
		t.Errorf("calculatorsCount: stored %d, live %d, want %d", user.CalculatorsCount, live, want)
	}
}
