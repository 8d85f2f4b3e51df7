package testutil_test

import (
	"testing"

	"nadlan/internal/errors"
	"nadlan/internal/models"
	"nadlan/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "calculators", "properties", "investments", "analyses", "settings", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}

	if err := db.Model(&models.Setting{}).Count(&count).Error; err != nil || count != 4 {
		t.Errorf("expected 4 seeded settings, got %d (err %v)", count, err)
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestAdvisor(t, first)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected an empty second database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	investor := testutil.CreateTestInvestor(t, db)
	if investor.ID == "" || investor.Role != models.RoleInvestor {
		t.Fatalf("unexpected investor fixture: %+v", investor)
	}

	calc := testutil.CreateTestCalculator(t, db, investor.ID)
	if calc.InvestorName != investor.Name {
		t.Errorf("expected investorName %q, got %q", investor.Name, calc.InvestorName)
	}
	testutil.AssertCalculatorsCount(t, db, investor.ID, 1)

	property := testutil.CreateTestProperty(t, db)
	inv := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
	testutil.CreateTestAnalysis(t, db, calc.ID, &inv.ID)
	testutil.AssertCounters(t, db, calc.ID, 1, 1)
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrCalculatorNotFound, "CALCULATOR_NOT_FOUND")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrInternalServer, nil), "INTERNAL_ERROR")
}
