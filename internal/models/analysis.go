package models

import "gorm.io/datatypes"

// AnalysisType selects which computation an analysis performs.
type AnalysisType string

const (
	AnalysisTypeMortgage    AnalysisType = "mortgage"
	AnalysisTypeCashflow    AnalysisType = "cashflow"
	AnalysisTypeSensitivity AnalysisType = "sensitivity"
	AnalysisTypeComparison  AnalysisType = "comparison"
	AnalysisTypeYield       AnalysisType = "yield"
)

// AnalysisStatus is the lifecycle state of an analysis.
type AnalysisStatus string

const (
	AnalysisStatusDraft    AnalysisStatus = "draft"
	AnalysisStatusActive   AnalysisStatus = "active"
	AnalysisStatusArchived AnalysisStatus = "archived"
)

// Analysis is a computed financial report attached to a calculator and
// optionally one of its investments. At most one analysis per
// (calculator, type) has IsDefault set.
type Analysis struct {
	Base
	CalculatorID   string         `gorm:"type:uuid;not null;index" json:"calculatorId"`
	InvestmentID   *string        `gorm:"type:uuid;index" json:"investmentId"`
	Name           string         `gorm:"not null" json:"name"`
	Type           AnalysisType   `gorm:"not null;index" json:"type"`
	Parameters     datatypes.JSON `gorm:"not null" json:"parameters"`
	Results        datatypes.JSON `json:"results"`
	CalculatorName string         `json:"calculatorName"`
	InvestmentName *string        `json:"investmentName"`
	IsDefault      bool           `gorm:"not null;default:false" json:"isDefault"`
	Status         AnalysisStatus `gorm:"not null;default:active" json:"status"`
}
