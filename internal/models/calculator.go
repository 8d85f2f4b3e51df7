package models

import "github.com/shopspring/decimal"

// CalculatorStatus is the lifecycle state of a calculator.
type CalculatorStatus string

const (
	CalculatorStatusDraft    CalculatorStatus = "draft"
	CalculatorStatusActive   CalculatorStatus = "active"
	CalculatorStatusArchived CalculatorStatus = "archived"
)

// InvestmentPreference is the investor's stated goal for a scenario.
type InvestmentPreference string

const (
	PreferencePositiveCashflow    InvestmentPreference = "positive_cashflow"
	PreferenceCapitalAppreciation InvestmentPreference = "capital_appreciation"
	PreferenceBalanced            InvestmentPreference = "balanced"
)

// Calculator is a named financial scenario owned by one investor. The
// InvestmentOptionsCount and AnalysesCount columns always equal the number of
// child rows; only the services package writes them.
type Calculator struct {
	Base
	UserID                 string               `gorm:"type:uuid;not null;index" json:"userId"`
	Name                   string               `gorm:"not null" json:"name"`
	InvestorName           string               `json:"investorName"`
	SelfEquity             decimal.Decimal      `gorm:"type:decimal(14,2);not null;default:0" json:"selfEquity"`
	HasMortgage            bool                 `gorm:"not null;default:false" json:"hasMortgage"`
	HasPropertyInIsrael    bool                 `gorm:"not null;default:false" json:"hasPropertyInIsrael"`
	InvestmentPreference   InvestmentPreference `gorm:"not null;default:positive_cashflow" json:"investmentPreference"`
	ExchangeRate           decimal.Decimal      `gorm:"type:decimal(10,4);not null" json:"exchangeRate"`
	VATRate                decimal.Decimal      `gorm:"column:vat_rate;type:decimal(6,2);not null" json:"vatRate"`
	Status                 CalculatorStatus     `gorm:"not null;default:draft" json:"status"`
	Notes                  string               `json:"notes,omitempty"`
	InvestmentOptionsCount int                  `gorm:"not null;default:0" json:"investmentOptionsCount"`
	AnalysesCount          int                  `gorm:"not null;default:0" json:"analysesCount"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
