package models

import "github.com/shopspring/decimal"

// Investment is one candidate property considered within a calculator. A nil
// override means the property's own value applies. At most one investment per
// calculator has IsSelected set.
type Investment struct {
	Base
	CalculatorID          string              `gorm:"type:uuid;not null;index" json:"calculatorId"`
	PropertyID            string              `gorm:"type:uuid;not null;index" json:"propertyId"`
	Name                  string              `gorm:"not null" json:"name"`
	PriceOverride         decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"priceOverride"`
	MonthlyRentOverride   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"monthlyRentOverride"`
	HasFurniture          bool                `gorm:"not null;default:false" json:"hasFurniture"`
	HasPropertyManagement bool                `gorm:"not null;default:false" json:"hasPropertyManagement"`
	HasRealEstateAgent    bool                `gorm:"not null;default:false" json:"hasRealEstateAgent"`
	IsSelected            bool                `gorm:"not null;default:false" json:"isSelected"`
	Notes                 string              `json:"notes,omitempty"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`

	// Populated on read from the property and overrides.
	EffectivePrice       decimal.Decimal `gorm:"-" json:"effectivePrice"`
	EffectiveMonthlyRent decimal.Decimal `gorm:"-" json:"effectiveMonthlyRent"`
	GrossYield           float64         `gorm:"-" json:"grossYield"`
}
