package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
)

// The helpers in this file are the only code that writes denormalized
// counters, exclusivity flags and copied display names. They must run inside
// the caller's transaction.

// lockCalculator loads a calculator and holds its row lock until the
// transaction ends, serializing writers that touch the same calculator's
// children. SQLite ignores the locking clause; its writers are already serial.
func lockCalculator(tx *gorm.DB, id string) (*models.Calculator, error) {
	var calc models.Calculator
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&calc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCalculatorNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &calc, nil
}

// lockCalculators locks several calculators in id order so that two
// transactions moving rows in opposite directions cannot deadlock.
func lockCalculators(tx *gorm.DB, ids ...string) (map[string]*models.Calculator, error) {
	ordered := append([]string(nil), ids...)
	if len(ordered) == 2 && ordered[1] < ordered[0] {
		ordered[0], ordered[1] = ordered[1], ordered[0]
	}
	out := make(map[string]*models.Calculator, len(ordered))
	for _, id := range ordered {
		if _, seen := out[id]; seen {
			continue
		}
		calc, err := lockCalculator(tx, id)
		if err != nil {
			return nil, err
		}
		out[id] = calc
	}
	return out, nil
}

// maxScopeAttempts bounds how often a writer re-locks after the row it is
// updating moved to another calculator.
const maxScopeAttempts = 3

// lockAnalysisScope locks the calculator that owns an analysis, plus targetID
// when the analysis is being moved, and returns the analysis as read while
// those locks are held. Decisions must be made from the returned copy.
func lockAnalysisScope(tx *gorm.DB, id string, targetID *string) (*models.Analysis, map[string]*models.Calculator, error) {
	for attempt := 0; attempt < maxScopeAttempts; attempt++ {
		var seen models.Analysis
		if err := loadAnalysis(tx, id, &seen); err != nil {
			return nil, nil, err
		}
		target := seen.CalculatorID
		if targetID != nil {
			target = *targetID
		}
		calcs, err := lockCalculators(tx, seen.CalculatorID, target)
		if err != nil {
			return nil, nil, err
		}

		var current models.Analysis
		if err := loadAnalysis(tx, id, &current); err != nil {
			return nil, nil, err
		}
		// Movers lock the source calculator, so once it matches it stays put.
		if current.CalculatorID == seen.CalculatorID {
			return &current, calcs, nil
		}
	}
	return nil, nil, apperrors.ErrConcurrentUpdate
}

// lockInvestmentScope locks an investment's calculator and returns the
// investment as read under that lock. Investments never change calculator.
func lockInvestmentScope(tx *gorm.DB, id string) (*models.Investment, error) {
	var inv models.Investment
	if err := tx.Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := lockCalculator(tx, inv.CalculatorID); err != nil {
		return nil, err
	}

	var current models.Investment
	if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &current, nil
}

// syncCalculatorCounters sets both child counters of a calculator to the live
// row counts.
func syncCalculatorCounters(tx *gorm.DB, calculatorID string) error {
	err := tx.Exec(`UPDATE calculators SET
		investment_options_count = (SELECT COUNT(*) FROM investments WHERE calculator_id = ?),
		analyses_count = (SELECT COUNT(*) FROM analyses WHERE calculator_id = ?),
		updated_at = ?
		WHERE id = ?`, calculatorID, calculatorID, time.Now(), calculatorID).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// syncUserCalculatorCount sets a user's calculatorsCount to the number of
// calculators they own.
func syncUserCalculatorCount(tx *gorm.DB, userID string) error {
	err := tx.Exec(`UPDATE users SET
		calculators_count = (SELECT COUNT(*) FROM calculators WHERE user_id = ?),
		updated_at = ?
		WHERE id = ?`, userID, time.Now(), userID).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// selectExclusively marks one investment as the selected option of its
// calculator and clears the flag on every sibling.
func selectExclusively(tx *gorm.DB, investmentID, calculatorID string) error {
	if err := tx.Model(&models.Investment{}).
		Where("calculator_id = ? AND id <> ? AND is_selected = ?", calculatorID, investmentID, true).
		Update("is_selected", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Investment{}).
		Where("id = ? AND calculator_id = ?", investmentID, calculatorID).
		Update("is_selected", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// markDefaultExclusively marks one analysis as the default of its
// (calculator, type) group and clears the flag on the rest of that group.
// Analyses of other types keep their flags.
func markDefaultExclusively(tx *gorm.DB, analysisID, calculatorID string, analysisType models.AnalysisType) error {
	if err := tx.Model(&models.Analysis{}).
		Where("calculator_id = ? AND type = ? AND id <> ? AND is_default = ?", calculatorID, analysisType, analysisID, true).
		Update("is_default", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Analysis{}).
		Where("id = ?", analysisID).
		Update("is_default", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// syncInvestorName copies a user's name onto the calculators they own.
func syncInvestorName(tx *gorm.DB, userID, name string) error {
	if err := tx.Model(&models.Calculator{}).Where("user_id = ?", userID).
		Update("investor_name", name).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// syncCalculatorName copies a calculator's name onto its analyses.
func syncCalculatorName(tx *gorm.DB, calculatorID, name string) error {
	if err := tx.Model(&models.Analysis{}).Where("calculator_id = ?", calculatorID).
		Update("calculator_name", name).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// syncInvestmentName copies an investment's name onto the analyses that reference it.
func syncInvestmentName(tx *gorm.DB, investmentID, name string) error {
	if err := tx.Model(&models.Analysis{}).Where("investment_id = ?", investmentID).
		Update("investment_name", name).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// invalidateDashboard drops the cached overview after a change in row counts.
func invalidateDashboard(store *cache.Store) {
	store.Delete(context.Background(), cache.KeyDashboardOverview)
}
