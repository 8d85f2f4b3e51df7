package services

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"nadlan/internal/models"
	"nadlan/internal/pagination"
)

// CreateUserInput carries the fields of a new user.
type CreateUserInput struct {
	Username string          `json:"username" binding:"required,username"`
	Password string          `json:"password" binding:"required,min=8,max=128"`
	Name     string          `json:"name" binding:"required,max=200"`
	Email    string          `json:"email" binding:"omitempty,email,max=255"`
	Phone    string          `json:"phone" binding:"omitempty,max=50"`
	Role     models.UserRole `json:"-"`
}

// UserPatch holds the optional fields of a user update.
type UserPatch struct {
	Name   *string            `json:"name" binding:"omitempty,min=1,max=200"`
	Email  *string            `json:"email" binding:"omitempty,email,max=255"`
	Phone  *string            `json:"phone" binding:"omitempty,max=50"`
	Status *models.UserStatus `json:"status" binding:"omitempty,user_status"`
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(input CreateUserInput) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
	ListInvestors(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	UpdateUser(id string, patch UserPatch) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CreateCalculatorInput carries the fields of a new calculator. Nil decimal
// fields fall back to the matching setting, then to built-in defaults.
type CreateCalculatorInput struct {
	UserID               string                      `json:"userId" binding:"required,uuid"`
	Name                 string                      `json:"name" binding:"required,max=200"`
	SelfEquity           *decimal.Decimal            `json:"selfEquity"`
	HasMortgage          bool                        `json:"hasMortgage"`
	HasPropertyInIsrael  bool                        `json:"hasPropertyInIsrael"`
	InvestmentPreference models.InvestmentPreference `json:"investmentPreference" binding:"omitempty,investment_preference"`
	ExchangeRate         *decimal.Decimal            `json:"exchangeRate"`
	VATRate              *decimal.Decimal            `json:"vatRate"`
	Status               models.CalculatorStatus     `json:"status" binding:"omitempty,calculator_status"`
	Notes                string                      `json:"notes" binding:"max=2000"`
}

// CalculatorPatch holds the optional fields of a calculator update.
type CalculatorPatch struct {
	UserID               *string                      `json:"userId" binding:"omitempty,uuid"`
	Name                 *string                      `json:"name" binding:"omitempty,min=1,max=200"`
	SelfEquity           *decimal.Decimal             `json:"selfEquity"`
	HasMortgage          *bool                        `json:"hasMortgage"`
	HasPropertyInIsrael  *bool                        `json:"hasPropertyInIsrael"`
	InvestmentPreference *models.InvestmentPreference `json:"investmentPreference" binding:"omitempty,investment_preference"`
	ExchangeRate         *decimal.Decimal             `json:"exchangeRate"`
	VATRate              *decimal.Decimal             `json:"vatRate"`
	Status               *models.CalculatorStatus     `json:"status" binding:"omitempty,calculator_status"`
	Notes                *string                      `json:"notes" binding:"omitempty,max=2000"`
}

// CalculatorFilter narrows calculator listings. An empty UserID lists all.
type CalculatorFilter struct {
	UserID string
	Status models.CalculatorStatus
}

// CalculatorServicer defines the contract for calculator-related business logic.
type CalculatorServicer interface {
	CreateCalculator(input CreateCalculatorInput) (*models.Calculator, error)
	GetCalculatorByID(id string) (*models.Calculator, error)
	ListCalculators(filter CalculatorFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Calculator], error)
	RecentCalculators(userID string, limit int) ([]models.Calculator, error)
	UpdateCalculator(id string, patch CalculatorPatch) (*models.Calculator, error)
	DuplicateCalculator(id string) (*models.Calculator, error)
	DeleteCalculator(id string) error
}

// CreatePropertyInput carries the fields of a new catalog property.
type CreatePropertyInput struct {
	Name            string           `json:"name" binding:"required,max=200"`
	Developer       string           `json:"developer" binding:"max=200"`
	Location        string           `json:"location" binding:"required,max=200"`
	Description     string           `json:"description" binding:"max=5000"`
	PriceWithoutVAT *decimal.Decimal `json:"priceWithoutVAT" binding:"required"`
	MonthlyRent     *decimal.Decimal `json:"monthlyRent" binding:"required"`
	GuaranteedRent  bool             `json:"guaranteedRent"`
	DeliveryDate    *models.Date     `json:"deliveryDate"`
	Bedrooms        int              `json:"bedrooms" binding:"min=0,max=50"`
	Area            *decimal.Decimal `json:"area"`
	IsAvailable     *bool            `json:"isAvailable"`
}

// PropertyPatch holds the optional fields of a property update.
type PropertyPatch struct {
	Name            *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Developer       *string          `json:"developer" binding:"omitempty,max=200"`
	Location        *string          `json:"location" binding:"omitempty,min=1,max=200"`
	Description     *string          `json:"description" binding:"omitempty,max=5000"`
	PriceWithoutVAT *decimal.Decimal `json:"priceWithoutVAT"`
	MonthlyRent     *decimal.Decimal `json:"monthlyRent"`
	GuaranteedRent  *bool            `json:"guaranteedRent"`
	DeliveryDate    *models.Date     `json:"deliveryDate"`
	Bedrooms        *int             `json:"bedrooms" binding:"omitempty,min=0,max=50"`
	Area            *decimal.Decimal `json:"area"`
	IsAvailable     *bool            `json:"isAvailable"`
}

// PropertyFilter narrows property listings.
type PropertyFilter struct {
	Location      string
	AvailableOnly bool
}

// PropertyServicer defines the contract for the property catalog.
type PropertyServicer interface {
	CreateProperty(input CreatePropertyInput) (*models.Property, error)
	GetPropertyByID(id string) (*models.Property, error)
	ListProperties(filter PropertyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error)
	UpdateProperty(id string, patch PropertyPatch) (*models.Property, error)
	DeleteProperty(id string) error
}

// CreateInvestmentInput carries the fields of a new investment option.
type CreateInvestmentInput struct {
	CalculatorID          string           `json:"calculatorId" binding:"required,uuid"`
	PropertyID            string           `json:"propertyId" binding:"required,uuid"`
	Name                  string           `json:"name" binding:"max=200"`
	PriceOverride         *decimal.Decimal `json:"priceOverride"`
	MonthlyRentOverride   *decimal.Decimal `json:"monthlyRentOverride"`
	HasFurniture          bool             `json:"hasFurniture"`
	HasPropertyManagement bool             `json:"hasPropertyManagement"`
	HasRealEstateAgent    bool             `json:"hasRealEstateAgent"`
	IsSelected            bool             `json:"isSelected"`
	Notes                 string           `json:"notes" binding:"max=2000"`
}

// InvestmentPatch holds the optional fields of an investment update. The
// override fields distinguish "absent" from an explicit null, which clears
// the override.
type InvestmentPatch struct {
	PropertyID            *string             `json:"propertyId" binding:"omitempty,uuid"`
	Name                  *string             `json:"name" binding:"omitempty,min=1,max=200"`
	PriceOverride         OptionalDecimal     `json:"priceOverride"`
	MonthlyRentOverride   OptionalDecimal     `json:"monthlyRentOverride"`
	HasFurniture          *bool               `json:"hasFurniture"`
	HasPropertyManagement *bool               `json:"hasPropertyManagement"`
	HasRealEstateAgent    *bool               `json:"hasRealEstateAgent"`
	IsSelected            *bool               `json:"isSelected"`
	Notes                 *string             `json:"notes" binding:"omitempty,max=2000"`
}

// InvestmentServicer defines the contract for investment options.
type InvestmentServicer interface {
	CreateInvestment(input CreateInvestmentInput) (*models.Investment, error)
	GetInvestmentByID(id string) (*models.Investment, error)
	ListInvestments(calculatorID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	UpdateInvestment(id string, patch InvestmentPatch) (*models.Investment, error)
	DeleteInvestment(id string) error
}

// CreateAnalysisInput carries the fields of a new analysis. Results are
// always computed from Parameters.
type CreateAnalysisInput struct {
	CalculatorID string                `json:"calculatorId" binding:"required,uuid"`
	InvestmentID *string               `json:"investmentId" binding:"omitempty,uuid"`
	Name         string                `json:"name" binding:"required,max=200"`
	Type         models.AnalysisType   `json:"type" binding:"required,analysis_type"`
	Parameters   json.RawMessage       `json:"parameters" binding:"required"`
	IsDefault    bool                  `json:"isDefault"`
	Status       models.AnalysisStatus `json:"status" binding:"omitempty,analysis_status"`
}

// AnalysisPatch holds the optional fields of an analysis update.
// InvestmentID distinguishes an explicit null (detach) from absence.
type AnalysisPatch struct {
	CalculatorID *string                `json:"calculatorId" binding:"omitempty,uuid"`
	InvestmentID OptionalString         `json:"investmentId"`
	Name         *string                `json:"name" binding:"omitempty,min=1,max=200"`
	Type         *models.AnalysisType   `json:"type" binding:"omitempty,analysis_type"`
	Parameters   json.RawMessage        `json:"parameters"`
	IsDefault    *bool                  `json:"isDefault"`
	Status       *models.AnalysisStatus `json:"status" binding:"omitempty,analysis_status"`
}

// AnalysisFilter narrows analysis listings. OwnerID restricts results to
// calculators owned by that user.
type AnalysisFilter struct {
	CalculatorID string
	InvestmentID string
	Type         models.AnalysisType
	OwnerID      string
}

// AnalysisServicer defines the contract for analyses.
type AnalysisServicer interface {
	CreateAnalysis(input CreateAnalysisInput) (*models.Analysis, error)
	GetAnalysisByID(id string) (*models.Analysis, error)
	ListAnalyses(filter AnalysisFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Analysis], error)
	UpdateAnalysis(id string, patch AnalysisPatch) (*models.Analysis, error)
	DeleteAnalysis(id string) error
}

// SettingServicer defines the contract for the key/value settings store.
type SettingServicer interface {
	ListSettings() ([]models.Setting, error)
	GetSetting(key string) (*models.Setting, error)
	UpdateSetting(key, value string, description *string) (*models.Setting, error)
}

// DashboardOverview aggregates record counts. In an investor's view only
// Properties is catalog-wide and Investors is zero.
type DashboardOverview struct {
	Investors   int64 `json:"investors"`
	Calculators int64 `json:"calculators"`
	Properties  int64 `json:"properties"`
	Investments int64 `json:"investments"`
	Analyses    int64 `json:"analyses"`
}

// DashboardServicer defines the contract for dashboard aggregates.
type DashboardServicer interface {
	Overview(ownerID string) (*DashboardOverview, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
