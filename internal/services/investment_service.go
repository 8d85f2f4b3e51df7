package services

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/finance"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
)

// investmentService handles investment options within calculators.
type investmentService struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewInvestmentService creates a new InvestmentServicer. store may be nil.
func NewInvestmentService(db *gorm.DB, store *cache.Store) InvestmentServicer {
	return &investmentService{db: db, cache: store}
}

// CreateInvestment adds an option to a calculator. When the option is created
// selected, any previously selected sibling is cleared in the same transaction.
func (s *investmentService) CreateInvestment(input CreateInvestmentInput) (*models.Investment, error) {
	if err := checkOverrides(nullable(input.PriceOverride), nullable(input.MonthlyRentOverride)); err != nil {
		return nil, err
	}

	inv := &models.Investment{
		CalculatorID:          input.CalculatorID,
		PropertyID:            input.PropertyID,
		Name:                  strings.TrimSpace(input.Name),
		PriceOverride:         nullable(input.PriceOverride),
		MonthlyRentOverride:   nullable(input.MonthlyRentOverride),
		HasFurniture:          input.HasFurniture,
		HasPropertyManagement: input.HasPropertyManagement,
		HasRealEstateAgent:    input.HasRealEstateAgent,
		Notes:                 input.Notes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockCalculator(tx, input.CalculatorID); err != nil {
			return err
		}

		property, err := findProperty(tx, input.PropertyID)
		if err != nil {
			return err
		}
		if inv.Name == "" {
			inv.Name = property.Name
		}

		if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.IsSelected {
			if err := selectExclusively(tx, inv.ID, inv.CalculatorID); err != nil {
				return err
			}
		}
		if err := syncCalculatorCounters(tx, inv.CalculatorID); err != nil {
			return err
		}
		return loadInvestment(tx, inv.ID, inv)
	})
	if err != nil {
		return nil, err
	}

	invalidateDashboard(s.cache)
	return inv, nil
}

// GetInvestmentByID retrieves an investment with its property and effective values.
func (s *investmentService) GetInvestmentByID(id string) (*models.Investment, error) {
	var inv models.Investment
	if err := loadInvestment(s.db, id, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvestments returns a page of a calculator's options, oldest first.
func (s *investmentService) ListInvestments(calculatorID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	if calculatorID == "" {
		return nil, apperrors.Invalid("calculatorId", "is required")
	}

	query := s.db.Model(&models.Investment{}).Where("calculator_id = ?", calculatorID)
	result, err := pagination.Find[models.Investment](query, page, "created_at ASC, id ASC", preloadProperty)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range result.Data {
		applyEffectiveValues(&result.Data[i])
	}
	return result, nil
}

// UpdateInvestment applies a patch. Selecting the option clears the flag on
// its siblings; a rename is copied onto analyses that reference it.
func (s *investmentService) UpdateInvestment(id string, patch InvestmentPatch) (*models.Investment, error) {
	if err := checkOverrides(patch.PriceOverride.Value, patch.MonthlyRentOverride.Value); err != nil {
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
	if patch.PriceOverride.Set {
		updates["price_override"] = patch.PriceOverride.Value
	}
	if patch.MonthlyRentOverride.Set {
		updates["monthly_rent_override"] = patch.MonthlyRentOverride.Value
	}
	if patch.HasFurniture != nil {
		updates["has_furniture"] = *patch.HasFurniture
	}
	if patch.HasPropertyManagement != nil {
		updates["has_property_management"] = *patch.HasPropertyManagement
	}
	if patch.HasRealEstateAgent != nil {
		updates["has_real_estate_agent"] = *patch.HasRealEstateAgent
	}
	if patch.IsSelected != nil && !*patch.IsSelected {
		updates["is_selected"] = false
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	var inv models.Investment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := lockInvestmentScope(tx, id)
		if err != nil {
			return err
		}
		inv = *current

		if patch.PropertyID != nil && *patch.PropertyID != inv.PropertyID {
			if _, err := findProperty(tx, *patch.PropertyID); err != nil {
				return err
			}
			updates["property_id"] = *patch.PropertyID
		}

		renamed := patch.Name != nil && updates["name"] != inv.Name
		if len(updates) > 0 {
			if err := tx.Model(&inv).Omit(clause.Associations).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if patch.IsSelected != nil && *patch.IsSelected && !inv.IsSelected {
			if err := selectExclusively(tx, inv.ID, inv.CalculatorID); err != nil {
				return err
			}
		}
		if renamed {
			if err := syncInvestmentName(tx, inv.ID, updates["name"].(string)); err != nil {
				return err
			}
		}
		return loadInvestment(tx, id, &inv)
	})
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// DeleteInvestment removes an option together with the analyses that
// reference it, then recounts the parent calculator.
func (s *investmentService) DeleteInvestment(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := lockInvestmentScope(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Where("investment_id = ?", id).Delete(&models.Analysis{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Investment{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := syncCalculatorCounters(tx, inv.CalculatorID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateDashboard(s.cache)
	return nil
}

func preloadProperty(db *gorm.DB) *gorm.DB {
	return db.Preload("Property")
}

func loadInvestment(db *gorm.DB, id string, inv *models.Investment) error {
	if err := db.Scopes(preloadProperty).Where("id = ?", id).First(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvestmentNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	applyEffectiveValues(inv)
	return nil
}

func findProperty(tx *gorm.DB, id string) (*models.Property, error) {
	var property models.Property
	if err := tx.Where("id = ?", id).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &property, nil
}

// applyEffectiveValues fills the computed fields from the overrides, falling
// back to the property's own price and rent.
func applyEffectiveValues(inv *models.Investment) {
	price, rent := decimal.Zero, decimal.Zero
	if inv.Property != nil {
		price, rent = inv.Property.PriceWithoutVAT, inv.Property.MonthlyRent
	}
	if inv.PriceOverride.Valid {
		price = inv.PriceOverride.Decimal
	}
	if inv.MonthlyRentOverride.Valid {
		rent = inv.MonthlyRentOverride.Decimal
	}
	inv.EffectivePrice = price
	inv.EffectiveMonthlyRent = rent
	inv.GrossYield = round2(finance.Yield(price.InexactFloat64(), rent.InexactFloat64()*12))
}

func checkOverrides(price, rent decimal.NullDecimal) error {
	if price.Valid && !price.Decimal.IsPositive() {
		return apperrors.Invalid("priceOverride", "must be greater than 0")
	}
	if rent.Valid && rent.Decimal.IsNegative() {
		return apperrors.Invalid("monthlyRentOverride", "must not be negative")
	}
	return nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
