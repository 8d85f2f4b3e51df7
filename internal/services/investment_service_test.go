package services

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nadlan/internal/models"
	"nadlan/internal/pagination"
	"nadlan/internal/testutil"
)

func TestCreateInvestment(t *testing.T) {
	t.Run("defaults_name_and_counts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)

		inv, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: calc.ID, PropertyID: property.ID})
		testutil.AssertNoError(t, err)

		if inv.Name != property.Name {
			t.Errorf("expected name to default to property name, got %q", inv.Name)
		}
		if !inv.EffectivePrice.Equal(decimal.NewFromInt(200000)) || !inv.EffectiveMonthlyRent.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected effective values from property, got %s / %s", inv.EffectivePrice, inv.EffectiveMonthlyRent)
		}
		if inv.GrossYield != 6 {
			t.Errorf("expected gross yield 6, got %v", inv.GrossYield)
		}
		testutil.AssertCounters(t, db, calc.ID, 1, 0)
	})

	t.Run("overrides_win", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)

		price := decimal.NewFromInt(180000)
		rent := decimal.NewFromInt(1200)
		inv, err := svc.CreateInvestment(CreateInvestmentInput{
			CalculatorID: calc.ID, PropertyID: property.ID, Name: "Negotiated",
			PriceOverride: &price, MonthlyRentOverride: &rent,
		})
		testutil.AssertNoError(t, err)
		if !inv.EffectivePrice.Equal(price) || !inv.EffectiveMonthlyRent.Equal(rent) {
			t.Errorf("expected overrides, got %s / %s", inv.EffectivePrice, inv.EffectiveMonthlyRent)
		}
		if inv.GrossYield != 8 {
			t.Errorf("expected gross yield 8, got %v", inv.GrossYield)
		}
	})

	t.Run("selected_clears_siblings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		other := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)

		first, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: calc.ID, PropertyID: property.ID, IsSelected: true})
		testutil.AssertNoError(t, err)
		otherSel, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: other.ID, PropertyID: property.ID, IsSelected: true})
		testutil.AssertNoError(t, err)
		second, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: calc.ID, PropertyID: property.ID, IsSelected: true})
		testutil.AssertNoError(t, err)

		if !second.IsSelected {
			t.Error("expected the new investment to be selected")
		}
		var reloaded models.Investment
		db.Where("id = ?", first.ID).First(&reloaded)
		if reloaded.IsSelected {
			t.Error("expected the previous selection to be cleared")
		}
		db.Where("id = ?", otherSel.ID).First(&reloaded)
		if !reloaded.IsSelected {
			t.Error("selection in another calculator must be untouched")
		}

		var selected int64
		db.Model(&models.Investment{}).Where("calculator_id = ? AND is_selected = ?", calc.ID, true).Count(&selected)
		if selected != 1 {
			t.Errorf("expected exactly 1 selected investment, got %d", selected)
		}
		testutil.AssertCounters(t, db, calc.ID, 2, 0)
	})

	t.Run("unknown_calculator", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		property := testutil.CreateTestProperty(t, db)

		_, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: missingID, PropertyID: property.ID})
		testutil.AssertAppError(t, err, "CALCULATOR_NOT_FOUND")
	})

	t.Run("unknown_property", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)

		_, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: calc.ID, PropertyID: missingID})
		testutil.AssertAppError(t, err, "PROPERTY_NOT_FOUND")
		testutil.AssertCounters(t, db, calc.ID, 0, 0)
	})
}

func TestUpdateInvestment(t *testing.T) {
	t.Run("select_moves_flag", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)
		a := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
		b := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)

		yes := true
		_, err := svc.UpdateInvestment(a.ID, InvestmentPatch{IsSelected: &yes})
		testutil.AssertNoError(t, err)
		updated, err := svc.UpdateInvestment(b.ID, InvestmentPatch{IsSelected: &yes})
		testutil.AssertNoError(t, err)
		if !updated.IsSelected {
			t.Error("expected b to be selected")
		}

		var reloaded models.Investment
		db.Where("id = ?", a.ID).First(&reloaded)
		if reloaded.IsSelected {
			t.Error("expected a to be cleared")
		}
		testutil.AssertCounters(t, db, calc.ID, 2, 0)
	})

	t.Run("deselect", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)
		inv, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: calc.ID, PropertyID: property.ID, IsSelected: true})
		testutil.AssertNoError(t, err)

		no := false
		updated, err := svc.UpdateInvestment(inv.ID, InvestmentPatch{IsSelected: &no})
		testutil.AssertNoError(t, err)
		if updated.IsSelected {
			t.Error("expected investment to be deselected")
		}
	})

	t.Run("null_override_clears", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)
		price := decimal.NewFromInt(150000)
		inv, err := svc.CreateInvestment(CreateInvestmentInput{CalculatorID: calc.ID, PropertyID: property.ID, PriceOverride: &price})
		testutil.AssertNoError(t, err)

		var patch InvestmentPatch
		if err := json.Unmarshal([]byte(`{"priceOverride": null, "hasFurniture": true}`), &patch); err != nil {
			t.Fatalf("unmarshal patch: %v", err)
		}
		updated, err := svc.UpdateInvestment(inv.ID, patch)
		testutil.AssertNoError(t, err)
		if updated.PriceOverride.Valid {
			t.Errorf("expected override cleared, got %s", updated.PriceOverride.Decimal)
		}
		if !updated.EffectivePrice.Equal(decimal.NewFromInt(200000)) {
			t.Errorf("expected property price, got %s", updated.EffectivePrice)
		}
		if !updated.HasFurniture {
			t.Error("expected hasFurniture to be set")
		}
	})

	t.Run("rename_syncs_analyses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)
		inv := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
		analysis := testutil.CreateTestAnalysis(t, db, calc.ID, &inv.ID)

		_, err := svc.UpdateInvestment(inv.ID, InvestmentPatch{Name: strPtr("Sea view")})
		testutil.AssertNoError(t, err)

		var reloaded models.Analysis
		db.Where("id = ?", analysis.ID).First(&reloaded)
		if reloaded.InvestmentName == nil || *reloaded.InvestmentName != "Sea view" {
			t.Errorf("expected investmentName to follow rename, got %v", reloaded.InvestmentName)
		}
	})

	t.Run("selection_read_under_lock", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)
		a := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
		b := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
		db.Model(&models.Investment{}).Where("id = ?", a.ID).Update("is_selected", true)

		// Another writer selects b after a was read as selected.
		onCalculatorLock(t, db, func(tx *gorm.DB) {
			tx.Model(&models.Investment{}).Where("id = ?", a.ID).Update("is_selected", false)
			tx.Model(&models.Investment{}).Where("id = ?", b.ID).Update("is_selected", true)
		})

		yes := true
		updated, err := svc.UpdateInvestment(a.ID, InvestmentPatch{IsSelected: &yes})
		testutil.AssertNoError(t, err)
		if !updated.IsSelected {
			t.Error("expected a to be selected")
		}

		var reloaded models.Investment
		db.Where("id = ?", b.ID).First(&reloaded)
		if reloaded.IsSelected {
			t.Error("expected b to be cleared")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)

		_, err := svc.UpdateInvestment(missingID, InvestmentPatch{Name: strPtr("x")})
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})
}

func TestDeleteInvestment(t *testing.T) {
	t.Run("removes_dependent_analyses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)
		investor := testutil.CreateTestInvestor(t, db)
		calc := testutil.CreateTestCalculator(t, db, investor.ID)
		property := testutil.CreateTestProperty(t, db)
		inv := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
		keep := testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
		testutil.CreateTestAnalysis(t, db, calc.ID, &inv.ID)
		testutil.CreateTestAnalysis(t, db, calc.ID, &keep.ID)
		testutil.CreateTestAnalysis(t, db, calc.ID, nil)

		testutil.AssertNoError(t, svc.DeleteInvestment(inv.ID))
		testutil.AssertCounters(t, db, calc.ID, 1, 2)

		var dangling int64
		db.Model(&models.Analysis{}).Where("investment_id = ?", inv.ID).Count(&dangling)
		if dangling != 0 {
			t.Errorf("expected no analyses referencing the deleted investment, got %d", dangling)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db, nil)

		testutil.AssertAppError(t, svc.DeleteInvestment(missingID), "INVESTMENT_NOT_FOUND")
	})
}

func TestListInvestments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewInvestmentService(db, nil)
	investor := testutil.CreateTestInvestor(t, db)
	calc := testutil.CreateTestCalculator(t, db, investor.ID)
	other := testutil.CreateTestCalculator(t, db, investor.ID)
	property := testutil.CreateTestProperty(t, db)
	testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
	testutil.CreateTestInvestment(t, db, calc.ID, property.ID)
	testutil.CreateTestInvestment(t, db, other.ID, property.ID)

	t.Run("scoped_to_calculator", func(t *testing.T) {
		page, err := svc.ListInvestments(calc.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2, got %d", page.TotalItems)
		}
		for _, inv := range page.Data {
			if inv.Property == nil || inv.EffectivePrice.IsZero() {
				t.Errorf("expected property and effective price on %s", inv.ID)
			}
		}
	})

	t.Run("calculator_required", func(t *testing.T) {
		_, err := svc.ListInvestments("", pagination.PageRequest{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
