package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
)

// propertyService handles the shared property catalog.
type propertyService struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewPropertyService creates a new PropertyServicer. store may be nil.
func NewPropertyService(db *gorm.DB, store *cache.Store) PropertyServicer {
	return &propertyService{db: db, cache: store}
}

// CreateProperty adds a listing to the catalog.
func (s *propertyService) CreateProperty(input CreatePropertyInput) (*models.Property, error) {
	name := strings.TrimSpace(input.Name)
	location := strings.TrimSpace(input.Location)
	if name == "" {
		return nil, apperrors.Invalid("name", "is required")
	}
	if location == "" {
		return nil, apperrors.Invalid("location", "is required")
	}
	if input.PriceWithoutVAT == nil || input.MonthlyRent == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "priceWithoutVAT and monthlyRent are required")
	}
	if err := checkPropertyNumbers(input.PriceWithoutVAT, input.MonthlyRent, input.Area); err != nil {
		return nil, err
	}

	property := &models.Property{
		Name:            name,
		Developer:       input.Developer,
		Location:        location,
		Description:     input.Description,
		PriceWithoutVAT: *input.PriceWithoutVAT,
		MonthlyRent:     *input.MonthlyRent,
		GuaranteedRent:  input.GuaranteedRent,
		DeliveryDate:    input.DeliveryDate.Ptr(),
		Bedrooms:        input.Bedrooms,
		Area:            decimal.Zero,
		IsAvailable:     true,
	}
	if input.Area != nil {
		property.Area = *input.Area
	}
	if input.IsAvailable != nil {
		property.IsAvailable = *input.IsAvailable
	}

	if err := s.db.Create(property).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	invalidateDashboard(s.cache)
	return property, nil
}

// GetPropertyByID retrieves a property by ID
func (s *propertyService) GetPropertyByID(id string) (*models.Property, error) {
	var property models.Property
	if err := s.db.Where("id = ?", id).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &property, nil
}

// ListProperties returns a page of catalog listings ordered by name.
func (s *propertyService) ListProperties(filter PropertyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error) {
	query := s.db.Model(&models.Property{})
	if filter.Location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	result, err := pagination.Find[models.Property](query, page, "name ASC, id ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// UpdateProperty applies a patch to a listing.
func (s *propertyService) UpdateProperty(id string, patch PropertyPatch) (*models.Property, error) {
	if err := checkPropertyNumbers(patch.PriceWithoutVAT, patch.MonthlyRent, patch.Area); err != nil {
		return nil, err
	}

	property, err := s.GetPropertyByID(id)
	if err != nil {
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
	if patch.Developer != nil {
		updates["developer"] = *patch.Developer
	}
	if patch.Location != nil {
		location := strings.TrimSpace(*patch.Location)
		if location == "" {
			return nil, apperrors.Invalid("location", "must not be empty")
		}
		updates["location"] = location
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.PriceWithoutVAT != nil {
		updates["price_without_vat"] = *patch.PriceWithoutVAT
	}
	if patch.MonthlyRent != nil {
		updates["monthly_rent"] = *patch.MonthlyRent
	}
	if patch.GuaranteedRent != nil {
		updates["guaranteed_rent"] = *patch.GuaranteedRent
	}
	if patch.DeliveryDate != nil {
		updates["delivery_date"] = patch.DeliveryDate.Ptr()
	}
	if patch.Bedrooms != nil {
		updates["bedrooms"] = *patch.Bedrooms
	}
	if patch.Area != nil {
		updates["area"] = *patch.Area
	}
	if patch.IsAvailable != nil {
		updates["is_available"] = *patch.IsAvailable
	}

	if len(updates) == 0 {
		return property, nil
	}
	if err := s.db.Model(property).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetPropertyByID(id)
}

// DeleteProperty removes a listing. A property still referenced by any
// investment is kept and PROPERTY_IN_USE is returned.
func (s *propertyService) DeleteProperty(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.Where("id = ?", id).First(&property).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPropertyNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var refs int64
		if err := tx.Model(&models.Investment{}).Where("property_id = ?", id).Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.ErrPropertyInUse
		}

		if err := tx.Where("id = ?", id).Delete(&models.Property{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateDashboard(s.cache)
	return nil
}

func checkPropertyNumbers(price, rent, area *decimal.Decimal) error {
	if price != nil && !price.IsPositive() {
		return apperrors.Invalid("priceWithoutVAT", "must be greater than 0")
	}
	if rent != nil && rent.IsNegative() {
		return apperrors.Invalid("monthlyRent", "must not be negative")
	}
	if area != nil && area.IsNegative() {
		return apperrors.Invalid("area", "must not be negative")
	}
	return nil
}
