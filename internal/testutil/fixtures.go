package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nadlan/internal/models"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestAdvisor creates an active advisor with a unique username.
func CreateTestAdvisor(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleAdvisor)
}

// CreateTestInvestor creates an active investor with a unique username.
func CreateTestInvestor(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleInvestor)
}

// CreateTestUserWithRole creates an active user of the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Username: fmt.Sprintf("%s%d", role, n),
		Password: string(hash),
		Name:     fmt.Sprintf("Test %s %d", role, n),
		Email:    fmt.Sprintf("%s%d@test.com", role, n),
		Role:     role,
		Status:   models.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCalculator creates a draft calculator owned by userID and
// recounts the owner's calculators.
func CreateTestCalculator(t *testing.T, db *gorm.DB, userID string) *models.Calculator {
	t.Helper()

	var owner models.User
	if err := db.Where("id = ?", userID).First(&owner).Error; err != nil {
		t.Fatalf("failed to load calculator owner: %v", err)
	}

	calc := &models.Calculator{
		UserID:               userID,
		Name:                 fmt.Sprintf("Test Calculator %d", nextID()),
		InvestorName:         owner.Name,
		SelfEquity:           decimal.NewFromInt(300000),
		InvestmentPreference: models.PreferencePositiveCashflow,
		ExchangeRate:         decimal.RequireFromString("3.95"),
		VATRate:              decimal.NewFromInt(19),
		Status:               models.CalculatorStatusDraft,
	}
	if err := db.Create(calc).Error; err != nil {
		t.Fatalf("failed to create test calculator: %v", err)
	}
	recount(t, db, `UPDATE users SET calculators_count = (SELECT COUNT(*) FROM calculators WHERE user_id = ?) WHERE id = ?`, userID, userID)
	return calc
}

// CreateTestProperty creates an available property priced at 200,000 with a
// monthly rent of 1,000.
func CreateTestProperty(t *testing.T, db *gorm.DB) *models.Property {
	t.Helper()

	property := &models.Property{
		Name:            fmt.Sprintf("Test Property %d", nextID()),
		Developer:       "Test Developer",
		Location:        "Larnaca",
		PriceWithoutVAT: decimal.NewFromInt(200000),
		MonthlyRent:     decimal.NewFromInt(1000),
		Bedrooms:        2,
		Area:            decimal.NewFromInt(85),
		IsAvailable:     true,
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("failed to create test property: %v", err)
	}
	return property
}

// CreateTestInvestment creates an unselected investment and recounts its calculator.
func CreateTestInvestment(t *testing.T, db *gorm.DB, calculatorID, propertyID string) *models.Investment {
	t.Helper()

	inv := &models.Investment{
		CalculatorID: calculatorID,
		PropertyID:   propertyID,
		Name:         fmt.Sprintf("Test Investment %d", nextID()),
	}
	if err := db.Omit("Property").Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	recountCalculator(t, db, calculatorID)
	return inv
}

// CreateTestAnalysis creates a yield analysis with fixed parameters and
// recounts its calculator.
func CreateTestAnalysis(t *testing.T, db *gorm.DB, calculatorID string, investmentID *string) *models.Analysis {
	t.Helper()

	var calc models.Calculator
	if err := db.Where("id = ?", calculatorID).First(&calc).Error; err != nil {
		t.Fatalf("failed to load analysis calculator: %v", err)
	}

	analysis := &models.Analysis{
		CalculatorID:   calculatorID,
		InvestmentID:   investmentID,
		Name:           fmt.Sprintf("Test Analysis %d", nextID()),
		Type:           models.AnalysisTypeYield,
		Parameters:     datatypes.JSON(`{"purchasePrice":200000,"monthlyRent":1000}`),
		Results:        datatypes.JSON(`{"grossYield":6}`),
		CalculatorName: calc.Name,
		Status:         models.AnalysisStatusActive,
	}
	if err := db.Create(analysis).Error; err != nil {
		t.Fatalf("failed to create test analysis: %v", err)
	}
	recountCalculator(t, db, calculatorID)
	return analysis
}

func recountCalculator(t *testing.T, db *gorm.DB, calculatorID string) {
	t.Helper()
	recount(t, db, `UPDATE calculators SET
		investment_options_count = (SELECT COUNT(*) FROM investments WHERE calculator_id = ?),
		analyses_count = (SELECT COUNT(*) FROM analyses WHERE calculator_id = ?)
		WHERE id = ?`, calculatorID, calculatorID, calculatorID)
}

func recount(t *testing.T, db *gorm.DB, sql string, args ...interface{}) {
	t.Helper()
	if err := db.Exec(sql, args...).Error; err != nil {
		t.Fatalf("failed to recount: %v", err)
	}
}
