package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
)

// analysisService handles analyses and their computed results.
type analysisService struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewAnalysisService creates a new AnalysisServicer. store may be nil.
func NewAnalysisService(db *gorm.DB, store *cache.Store) AnalysisServicer {
	return &analysisService{db: db, cache: store}
}

// CreateAnalysis computes results from the parameters and stores the analysis
// under its calculator. A default analysis displaces the previous default of
// the same type.
func (s *analysisService) CreateAnalysis(input CreateAnalysisInput) (*models.Analysis, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Invalid("name", "is required")
	}
	status := input.Status
	if status == "" {
		status = models.AnalysisStatusActive
	}

	var analysis models.Analysis
	err := s.db.Transaction(func(tx *gorm.DB) error {
		calc, err := lockCalculator(tx, input.CalculatorID)
		if err != nil {
			return err
		}

		invID, invName, err := resolveInvestment(tx, input.InvestmentID, calc.ID)
		if err != nil {
			return err
		}

		params, results, err := computeResults(tx, calc, input.Type, input.Parameters)
		if err != nil {
			return err
		}

		analysis = models.Analysis{
			CalculatorID:   calc.ID,
			InvestmentID:   invID,
			Name:           name,
			Type:           input.Type,
			Parameters:     params,
			Results:        results,
			CalculatorName: calc.Name,
			InvestmentName: invName,
			Status:         status,
		}
		if err := tx.Omit(clause.Associations).Create(&analysis).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.IsDefault {
			if err := markDefaultExclusively(tx, analysis.ID, calc.ID, analysis.Type); err != nil {
				return err
			}
		}
		if err := syncCalculatorCounters(tx, calc.ID); err != nil {
			return err
		}
		return loadAnalysis(tx, analysis.ID, &analysis)
	})
	if err != nil {
		return nil, err
	}

	invalidateDashboard(s.cache)
	return &analysis, nil
}

// GetAnalysisByID retrieves an analysis by ID
func (s *analysisService) GetAnalysisByID(id string) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := loadAnalysis(s.db, id, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ListAnalyses returns a page of analyses, newest first.
func (s *analysisService) ListAnalyses(filter AnalysisFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Analysis], error) {
	query := s.db.Model(&models.Analysis{})
	if filter.CalculatorID != "" {
		query = query.Where("calculator_id = ?", filter.CalculatorID)
	}
	if filter.InvestmentID != "" {
		query = query.Where("investment_id = ?", filter.InvestmentID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.OwnerID != "" {
		query = query.Where("calculator_id IN (?)",
			s.db.Model(&models.Calculator{}).Select("id").Where("user_id = ?", filter.OwnerID))
	}

	result, err := pagination.Find[models.Analysis](query, page, "created_at DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// UpdateAnalysis applies a patch. Moving the analysis to another calculator
// recounts both calculators and refreshes calculatorName; changing the
// investment refreshes investmentName. Results are recomputed whenever their
// inputs change.
func (s *analysisService) UpdateAnalysis(id string, patch AnalysisPatch) (*models.Analysis, error) {
	updates := make(map[string]interface{})
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.Invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	var analysis models.Analysis
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, calcs, err := lockAnalysisScope(tx, id, patch.CalculatorID)
		if err != nil {
			return err
		}

		targetID := current.CalculatorID
		if patch.CalculatorID != nil {
			targetID = *patch.CalculatorID
		}
		target := calcs[targetID]
		calcChanged := targetID != current.CalculatorID
		if calcChanged {
			updates["calculator_id"] = target.ID
			updates["calculator_name"] = target.Name
		}

		finalType := current.Type
		if patch.Type != nil {
			finalType = *patch.Type
		}
		typeChanged := finalType != current.Type
		if typeChanged {
			updates["type"] = finalType
		}

		if patch.InvestmentID.Set {
			invID, invName, err := resolveInvestment(tx, patch.InvestmentID.Value, target.ID)
			if err != nil {
				return err
			}
			updates["investment_id"] = invID
			updates["investment_name"] = invName
		} else if calcChanged && current.InvestmentID != nil {
			// An investment never leaves its calculator, so the reference is dropped.
			updates["investment_id"] = nil
			updates["investment_name"] = nil
		}

		if len(patch.Parameters) > 0 || typeChanged || (calcChanged && finalType == models.AnalysisTypeComparison) {
			raw := patch.Parameters
			if len(raw) == 0 {
				raw = []byte(current.Parameters)
			}
			params, results, err := computeResults(tx, target, finalType, raw)
			if err != nil {
				return err
			}
			updates["parameters"] = params
			updates["results"] = results
		}

		makeDefault := patch.IsDefault != nil && *patch.IsDefault
		if patch.IsDefault != nil && !*patch.IsDefault {
			updates["is_default"] = false
		}
		// The flag leaves with the row so it cannot collide with the target
		// group's default; markDefaultExclusively sets it again when asked.
		if current.IsDefault && (calcChanged || typeChanged) {
			updates["is_default"] = false
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Analysis{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if makeDefault {
			if err := markDefaultExclusively(tx, id, target.ID, finalType); err != nil {
				return err
			}
		}
		if calcChanged {
			if err := syncCalculatorCounters(tx, current.CalculatorID); err != nil {
				return err
			}
			if err := syncCalculatorCounters(tx, target.ID); err != nil {
				return err
			}
		}
		return loadAnalysis(tx, id, &analysis)
	})
	if err != nil {
		return nil, err
	}

	return &analysis, nil
}

// DeleteAnalysis removes an analysis and recounts its calculator.
func (s *analysisService) DeleteAnalysis(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		analysis, _, err := lockAnalysisScope(tx, id, nil)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.Analysis{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return syncCalculatorCounters(tx, analysis.CalculatorID)
	})
	if err != nil {
		return err
	}

	invalidateDashboard(s.cache)
	return nil
}

func loadAnalysis(db *gorm.DB, id string, analysis *models.Analysis) error {
	if err := db.Where("id = ?", id).First(analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAnalysisNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// resolveInvestment returns the id and name to store for an analysis'
// investment reference. An unknown investment is dropped rather than
// rejected; one that belongs to a different calculator is invalid input.
func resolveInvestment(tx *gorm.DB, investmentID *string, calculatorID string) (*string, *string, error) {
	if investmentID == nil || *investmentID == "" {
		return nil, nil, nil
	}
	if _, err := uuid.Parse(*investmentID); err != nil {
		return nil, nil, apperrors.Invalid("investmentId", "must be a valid id")
	}

	var inv models.Investment
	if err := tx.Where("id = ?", *investmentID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inv.CalculatorID != calculatorID {
		return nil, nil, apperrors.Invalid("investmentId", "must belong to the analysis calculator")
	}

	id, name := inv.ID, inv.Name
	return &id, &name, nil
}
