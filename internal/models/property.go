package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is a catalog listing shared by any number of investments.
type Property struct {
	Base
	Name            string          `gorm:"not null" json:"name"`
	Developer       string          `json:"developer,omitempty"`
	Location        string          `gorm:"not null" json:"location"`
	Description     string          `json:"description,omitempty"`
	PriceWithoutVAT decimal.Decimal `gorm:"column:price_without_vat;type:decimal(14,2);not null" json:"priceWithoutVAT"`
	MonthlyRent     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthlyRent"`
	GuaranteedRent  bool            `gorm:"not null;default:false" json:"guaranteedRent"`
	DeliveryDate    *time.Time      `json:"deliveryDate,omitempty"`
	Bedrooms        int             `gorm:"not null;default:0" json:"bedrooms"`
	Area            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"area"`
	IsAvailable     bool            `gorm:"not null" json:"isAvailable"`
}
