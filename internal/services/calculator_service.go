package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
	copySuffix         = " (copy)"
)

var (
	defaultExchangeRate = decimal.RequireFromString("3.95")
	defaultVATRate      = decimal.NewFromInt(19)
	hundred             = decimal.NewFromInt(100)
)

// calculatorService handles calculator-related business logic.
type calculatorService struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewCalculatorService creates a new CalculatorServicer. store may be nil.
func NewCalculatorService(db *gorm.DB, store *cache.Store) CalculatorServicer {
	return &calculatorService{db: db, cache: store}
}

// CreateCalculator inserts a calculator for an existing user and bumps the
// owner's calculatorsCount in the same transaction. Missing rates default to
// the current settings.
func (s *calculatorService) CreateCalculator(input CreateCalculatorInput) (*models.Calculator, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Invalid("name", "is required")
	}
	if err := checkCalculatorNumbers(input.SelfEquity, input.ExchangeRate, input.VATRate); err != nil {
		return nil, err
	}

	calc := &models.Calculator{
		UserID:               input.UserID,
		Name:                 name,
		SelfEquity:           decimal.Zero,
		HasMortgage:          input.HasMortgage,
		HasPropertyInIsrael:  input.HasPropertyInIsrael,
		InvestmentPreference: input.InvestmentPreference,
		Status:               input.Status,
		Notes:                input.Notes,
	}
	if input.SelfEquity != nil {
		calc.SelfEquity = *input.SelfEquity
	}
	if calc.InvestmentPreference == "" {
		calc.InvestmentPreference = models.PreferencePositiveCashflow
	}
	if calc.Status == "" {
		calc.Status = models.CalculatorStatusDraft
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Where("id = ?", input.UserID).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		calc.InvestorName = owner.Name

		calc.ExchangeRate = settingDecimal(tx, models.SettingExchangeRate, defaultExchangeRate)
		if input.ExchangeRate != nil {
			calc.ExchangeRate = *input.ExchangeRate
		}
		calc.VATRate = settingDecimal(tx, models.SettingVATRate, defaultVATRate)
		if input.VATRate != nil {
			calc.VATRate = *input.VATRate
		}

		if err := tx.Omit(clause.Associations).Create(calc).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return syncUserCalculatorCount(tx, owner.ID)
	})
	if err != nil {
		return nil, err
	}

	invalidateDashboard(s.cache)
	return calc, nil
}

// GetCalculatorByID retrieves a calculator by ID
func (s *calculatorService) GetCalculatorByID(id string) (*models.Calculator, error) {
	var calc models.Calculator
	if err := s.db.Where("id = ?", id).First(&calc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCalculatorNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &calc, nil
}

// ListCalculators returns a page of calculators, most recently updated first.
func (s *calculatorService) ListCalculators(filter CalculatorFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Calculator], error) {
	query := s.db.Model(&models.Calculator{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	result, err := pagination.Find[models.Calculator](query, page, "updated_at DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// RecentCalculators returns the most recently updated calculators. An empty
// userID spans all owners.
func (s *calculatorService) RecentCalculators(userID string, limit int) ([]models.Calculator, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	query := s.db.Model(&models.Calculator{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	calcs := []models.Calculator{}
	if err := query.Order("updated_at DESC, id DESC").Limit(limit).Find(&calcs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return calcs, nil
}

// UpdateCalculator applies a patch. Moving the calculator to another owner
// re-resolves investorName and recounts both owners; a rename is copied onto
// the calculator's analyses.
func (s *calculatorService) UpdateCalculator(id string, patch CalculatorPatch) (*models.Calculator, error) {
	if err := checkCalculatorNumbers(patch.SelfEquity, patch.ExchangeRate, patch.VATRate); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.Invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if patch.SelfEquity != nil {
		updates["self_equity"] = *patch.SelfEquity
	}
	if patch.HasMortgage != nil {
		updates["has_mortgage"] = *patch.HasMortgage
	}
	if patch.HasPropertyInIsrael != nil {
		updates["has_property_in_israel"] = *patch.HasPropertyInIsrael
	}
	if patch.InvestmentPreference != nil {
		updates["investment_preference"] = *patch.InvestmentPreference
	}
	if patch.ExchangeRate != nil {
		updates["exchange_rate"] = *patch.ExchangeRate
	}
	if patch.VATRate != nil {
		updates["vat_rate"] = *patch.VATRate
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	var calc *models.Calculator
	ownerChanged := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := lockCalculator(tx, id)
		if err != nil {
			return err
		}
		calc = current
		previousOwner := current.UserID

		if patch.UserID != nil && *patch.UserID != current.UserID {
			var owner models.User
			if err := tx.Where("id = ?", *patch.UserID).First(&owner).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrUserNotFound
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			updates["user_id"] = owner.ID
			updates["investor_name"] = owner.Name
			ownerChanged = true
		}
		if len(updates) == 0 {
			return nil
		}

		renamed := patch.Name != nil && updates["name"] != current.Name
		if err := tx.Model(calc).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if renamed {
			if err := syncCalculatorName(tx, calc.ID, updates["name"].(string)); err != nil {
				return err
			}
		}
		if ownerChanged {
			if err := syncUserCalculatorCount(tx, previousOwner); err != nil {
				return err
			}
			if err := syncUserCalculatorCount(tx, calc.UserID); err != nil {
				return err
			}
		}
		if err := tx.Where("id = ?", id).First(calc).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ownerChanged {
		invalidateDashboard(s.cache)
	}

	return calc, nil
}

// DuplicateCalculator copies a calculator and its investments under the same
// owner. Analyses are not copied; counters of the copy are recomputed from the
// copied rows.
func (s *calculatorService) DuplicateCalculator(id string) (*models.Calculator, error) {
	var copied models.Calculator
	err := s.db.Transaction(func(tx *gorm.DB) error {
		source, err := lockCalculator(tx, id)
		if err != nil {
			return err
		}

		var investments []models.Investment
		if err := tx.Where("calculator_id = ?", source.ID).Order("created_at ASC").Find(&investments).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		copied = *source
		copied.Base = models.Base{}
		copied.Name = source.Name + copySuffix
		copied.InvestmentOptionsCount = 0
		copied.AnalysesCount = 0
		copied.User = nil
		if err := tx.Omit(clause.Associations).Create(&copied).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, inv := range investments {
			dup := inv
			dup.Base = models.Base{}
			dup.CalculatorID = copied.ID
			dup.Property = nil
			if err := tx.Omit(clause.Associations).Create(&dup).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if err := syncCalculatorCounters(tx, copied.ID); err != nil {
			return err
		}
		if err := syncUserCalculatorCount(tx, copied.UserID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", copied.ID).First(&copied).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateDashboard(s.cache)
	return &copied, nil
}

// DeleteCalculator removes a calculator with its analyses and investments,
// then recounts the owner's calculators.
func (s *calculatorService) DeleteCalculator(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		calc, err := lockCalculator(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Where("calculator_id = ?", calc.ID).Delete(&models.Analysis{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("calculator_id = ?", calc.ID).Delete(&models.Investment{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", calc.ID).Delete(&models.Calculator{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return syncUserCalculatorCount(tx, calc.UserID)
	})
	if err != nil {
		return err
	}

	invalidateDashboard(s.cache)
	return nil
}

func checkCalculatorNumbers(selfEquity, exchangeRate, vatRate *decimal.Decimal) error {
	if selfEquity != nil && selfEquity.IsNegative() {
		return apperrors.Invalid("selfEquity", "must not be negative")
	}
	if exchangeRate != nil && !exchangeRate.IsPositive() {
		return apperrors.Invalid("exchangeRate", "must be greater than 0")
	}
	if vatRate != nil && (vatRate.IsNegative() || vatRate.GreaterThan(hundred)) {
		return apperrors.Invalid("vatRate", "must be between 0 and 100")
	}
	return nil
}
