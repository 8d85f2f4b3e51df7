package models

import "time"

// Well-known setting keys.
const (
	SettingExchangeRate       = "exchangeRate"
	SettingVATRate            = "vatRate"
	SettingMortgageRateIsrael = "mortgageRateIsrael"
	SettingMortgageRateCyprus = "mortgageRateCyprus"
)

// Setting is a flat key/value row.
type Setting struct {
	Key         string    `gorm:"primaryKey" json:"key"`
	Value       string    `gorm:"not null" json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
