package services

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/finance"
	"nadlan/internal/models"
)

const (
	defaultProjectionYears = 10
	defaultComparisonTerm  = 25
)

var paramValidator = newParamValidator()

func newParamValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

type mortgageParams struct {
	LoanAmount   float64  `json:"loanAmount" validate:"gt=0"`
	InterestRate *float64 `json:"interestRate" validate:"omitempty,gte=0,lte=100"`
	LoanTerm     float64  `json:"loanTerm" validate:"gte=1,lte=50"`
	LoanType     string   `json:"loanType" validate:"omitempty,oneof=israel cyprus"`
}

type mortgageResults struct {
	MonthlyPayment       float64                   `json:"monthlyPayment"`
	TotalPayments        float64                   `json:"totalPayments"`
	TotalInterest        float64                   `json:"totalInterest"`
	LoanType             string                    `json:"loanType"`
	AmortizationSchedule []finance.AmortizationRow `json:"amortizationSchedule"`
}

type cashflowParams struct {
	InitialInvestment  float64 `json:"initialInvestment" validate:"gt=0"`
	MonthlyRent        float64 `json:"monthlyRent" validate:"gt=0"`
	MortgagePayment    float64 `json:"mortgagePayment" validate:"gte=0"`
	ManagementFee      float64 `json:"managementFee" validate:"gte=0"`
	PropertyTax        float64 `json:"propertyTax" validate:"gte=0"`
	Insurance          float64 `json:"insurance" validate:"gte=0"`
	Maintenance        float64 `json:"maintenance" validate:"gte=0"`
	OtherExpenses      float64 `json:"otherExpenses" validate:"gte=0"`
	AnnualAppreciation float64 `json:"annualAppreciation" validate:"gte=-100,lte=100"`
	AnnualRentIncrease float64 `json:"annualRentIncrease" validate:"gte=-100,lte=100"`
	Period             int     `json:"period" validate:"omitempty,gte=1,lte=50"`
	PropertyValue      float64 `json:"propertyValue" validate:"gte=0"`
}

type cashflowResults struct {
	MonthlyCashflow    float64                  `json:"monthlyCashflow"`
	AnnualCashflow     float64                  `json:"annualCashflow"`
	ROI                float64                  `json:"roi"`
	PaybackPeriod      float64                  `json:"paybackPeriod"`
	CashflowProjection []finance.ProjectionYear `json:"cashflowProjection"`
}

type sensitivityParams struct {
	BaseParameter     string  `json:"baseParameter" validate:"required,oneof=interestRate loanAmount monthlyRent price"`
	BaseValue         float64 `json:"baseValue" validate:"gt=0"`
	RangePercentage   float64 `json:"rangePercentage" validate:"gt=0,lte=100"`
	Steps             int     `json:"steps" validate:"gte=3,lte=100"`
	AffectedParameter string  `json:"affectedParameter" validate:"required,oneof=monthlyPayment grossYield monthlyCashflow"`
	LoanAmount        float64 `json:"loanAmount" validate:"gte=0"`
	InterestRate      float64 `json:"interestRate" validate:"gte=0,lte=100"`
	LoanTerm          float64 `json:"loanTerm" validate:"gte=0,lte=50"`
	MonthlyRent       float64 `json:"monthlyRent" validate:"gte=0"`
	Price             float64 `json:"price" validate:"gte=0"`
	MonthlyExpenses   float64 `json:"monthlyExpenses" validate:"gte=0"`
}

type sensitivityRow struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	Result     float64 `json:"result"`
}

type sensitivityResults struct {
	BaseParameter     string           `json:"baseParameter"`
	AffectedParameter string           `json:"affectedParameter"`
	BaseValue         float64          `json:"baseValue"`
	RangePercentage   float64          `json:"rangePercentage"`
	Steps             int              `json:"steps"`
	SensitivityData   []sensitivityRow `json:"sensitivityData"`
}

type comparisonParams struct {
	InvestmentIDs []string `json:"investmentIds" validate:"min=2,dive,uuid"`
	Parameters    []string `json:"parameters" validate:"min=1,dive,oneof=price monthlyRent grossYield monthlyPayment"`
	InterestRate  *float64 `json:"interestRate" validate:"omitempty,gte=0,lte=100"`
	LoanTerm      *float64 `json:"loanTerm" validate:"omitempty,gte=1,lte=50"`
}

type comparisonRow struct {
	InvestmentID string             `json:"investmentId"`
	Name         string             `json:"name"`
	Values       map[string]float64 `json:"values"`
}

type comparisonData struct {
	Investments []string        `json:"investments"`
	Parameters  []string        `json:"parameters"`
	Data        []comparisonRow `json:"data"`
}

type comparisonResults struct {
	ComparisonData comparisonData `json:"comparisonData"`
}

type yieldParams struct {
	PurchasePrice   float64 `json:"purchasePrice" validate:"gt=0"`
	MonthlyRent     float64 `json:"monthlyRent" validate:"gt=0"`
	ClosingCosts    float64 `json:"closingCosts" validate:"gte=0"`
	RenovationCosts float64 `json:"renovationCosts" validate:"gte=0"`
	VacancyRate     float64 `json:"vacancyRate" validate:"gte=0,lte=100"`
	ExpenseRate     float64 `json:"expenseRate" validate:"gte=0,lte=100"`
}

type yieldResults struct {
	GrossYield      float64 `json:"grossYield"`
	NetYield        float64 `json:"netYield"`
	TotalInvestment float64 `json:"totalInvestment"`
	AnnualRent      float64 `json:"annualRent"`
	EffectiveRent   float64 `json:"effectiveRent"`
	Expenses        float64 `json:"expenses"`
	NetIncome       float64 `json:"netIncome"`
}

// computeResults decodes and validates the parameters of an analysis type and
// derives its results. It returns the normalized parameters with defaults
// filled in alongside the results.
func computeResults(tx *gorm.DB, calc *models.Calculator, analysisType models.AnalysisType, raw json.RawMessage) (datatypes.JSON, datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil, apperrors.Invalid("parameters", "is required")
	}

	var (
		params  any
		results any
		err     error
	)
	switch analysisType {
	case models.AnalysisTypeMortgage:
		var p mortgageParams
		if err = decodeParams(raw, &p); err == nil {
			results = mortgageAnalysis(tx, &p)
		}
		params = p
	case models.AnalysisTypeCashflow:
		var p cashflowParams
		if err = decodeParams(raw, &p); err == nil {
			results = cashflowAnalysis(&p)
		}
		params = p
	case models.AnalysisTypeSensitivity:
		var p sensitivityParams
		if err = decodeParams(raw, &p); err == nil {
			results = sensitivityAnalysis(p)
		}
		params = p
	case models.AnalysisTypeComparison:
		var p comparisonParams
		if err = decodeParams(raw, &p); err == nil {
			results, err = comparisonAnalysis(tx, calc, &p)
		}
		params = p
	case models.AnalysisTypeYield:
		var p yieldParams
		if err = decodeParams(raw, &p); err == nil {
			results = yieldAnalysis(p)
		}
		params = p
	default:
		return nil, nil, apperrors.Invalid("type", "is not a known analysis type")
	}
	if err != nil {
		return nil, nil, err
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return datatypes.JSON(paramsJSON), datatypes.JSON(resultsJSON), nil
}

// decodeParams unmarshals raw into dest and validates it. Field errors are
// reported under the "parameters." prefix.
func decodeParams(raw json.RawMessage, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperrors.Invalid("parameters", "must be an object matching the analysis type")
	}
	if err := paramValidator.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		appErr := apperrors.Validation(err)
		names := make([]string, 0, len(appErr.Fields))
		for i := range appErr.Fields {
			appErr.Fields[i].Field = "parameters." + appErr.Fields[i].Field
			names = append(names, appErr.Fields[i].Field)
		}
		appErr.Message = "Invalid fields: " + strings.Join(names, ", ")
		return appErr
	}
	return nil
}

func mortgageAnalysis(tx *gorm.DB, p *mortgageParams) mortgageResults {
	if p.LoanType == "" {
		p.LoanType = "israel"
	}
	if p.InterestRate == nil {
		key := models.SettingMortgageRateIsrael
		if p.LoanType == "cyprus" {
			key = models.SettingMortgageRateCyprus
		}
		rate := settingDecimal(tx, key, decimal.Zero).InexactFloat64()
		p.InterestRate = &rate
	}

	payment := finance.MortgagePayment(p.LoanAmount, *p.InterestRate, p.LoanTerm)
	schedule := finance.AmortizationSchedule(p.LoanAmount, *p.InterestRate, p.LoanTerm)
	for i := range schedule {
		schedule[i].Payment = round2(schedule[i].Payment)
		schedule[i].Principal = round2(schedule[i].Principal)
		schedule[i].Interest = round2(schedule[i].Interest)
		schedule[i].Balance = round2(schedule[i].Balance)
	}

	total := payment * p.LoanTerm * 12
	interest := 0.0
	if payment > 0 {
		interest = total - p.LoanAmount
	}
	return mortgageResults{
		MonthlyPayment:       round2(payment),
		TotalPayments:        round2(total),
		TotalInterest:        round2(interest),
		LoanType:             p.LoanType,
		AmortizationSchedule: schedule,
	}
}

func cashflowAnalysis(p *cashflowParams) cashflowResults {
	if p.Period == 0 {
		p.Period = defaultProjectionYears
	}

	other := p.PropertyTax + p.Insurance + p.Maintenance + p.OtherExpenses
	monthly := finance.CashFlow(p.MonthlyRent, p.MortgagePayment, p.ManagementFee, other)
	annual := monthly * 12

	projection := finance.CashflowProjection(finance.ProjectionInput{
		Years:              p.Period,
		MonthlyRent:        p.MonthlyRent,
		MonthlyExpenses:    p.MortgagePayment + p.ManagementFee + other,
		PropertyValue:      p.PropertyValue,
		AnnualAppreciation: p.AnnualAppreciation,
		AnnualRentIncrease: p.AnnualRentIncrease,
	})
	for i := range projection {
		projection[i].MonthlyRent = round2(projection[i].MonthlyRent)
		projection[i].AnnualCashflow = round2(projection[i].AnnualCashflow)
		projection[i].Cumulative = round2(projection[i].Cumulative)
		projection[i].PropertyValue = round2(projection[i].PropertyValue)
	}

	return cashflowResults{
		MonthlyCashflow:    round2(monthly),
		AnnualCashflow:     round2(annual),
		ROI:                round2(finance.ROI(annual, p.InitialInvestment)),
		PaybackPeriod:      round2(finance.PaybackPeriod(p.InitialInvestment, annual)),
		CashflowProjection: projection,
	}
}

func sensitivityAnalysis(p sensitivityParams) sensitivityResults {
	points := finance.SensitivitySweep(p.BaseValue, p.RangePercentage, p.Steps)
	rows := make([]sensitivityRow, 0, len(points))
	for _, pt := range points {
		scenario := p
		switch p.BaseParameter {
		case "interestRate":
			scenario.InterestRate = pt.Value
		case "loanAmount":
			scenario.LoanAmount = pt.Value
		case "monthlyRent":
			scenario.MonthlyRent = pt.Value
		case "price":
			scenario.Price = pt.Value
		}
		rows = append(rows, sensitivityRow{
			Value:      round2(pt.Value),
			Percentage: round2(pt.Percentage),
			Result:     round2(scenario.affected()),
		})
	}
	return sensitivityResults{
		BaseParameter:     p.BaseParameter,
		AffectedParameter: p.AffectedParameter,
		BaseValue:         p.BaseValue,
		RangePercentage:   p.RangePercentage,
		Steps:             p.Steps,
		SensitivityData:   rows,
	}
}

func (p sensitivityParams) affected() float64 {
	switch p.AffectedParameter {
	case "monthlyPayment":
		return finance.MortgagePayment(p.LoanAmount, p.InterestRate, p.LoanTerm)
	case "grossYield":
		return finance.Yield(p.Price, p.MonthlyRent*12)
	case "monthlyCashflow":
		payment := finance.MortgagePayment(p.LoanAmount, p.InterestRate, p.LoanTerm)
		return finance.CashFlow(p.MonthlyRent, payment, 0, p.MonthlyExpenses)
	}
	return 0
}

// comparisonAnalysis lines up investments of the analysis' calculator. The
// loan behind monthlyPayment is the effective price less the calculator's
// self equity.
func comparisonAnalysis(tx *gorm.DB, calc *models.Calculator, p *comparisonParams) (comparisonResults, error) {
	ids := dedupe(p.InvestmentIDs)
	if len(ids) < 2 {
		return comparisonResults{}, apperrors.Invalid("parameters.investmentIds", "must name at least 2 different investments")
	}
	p.InvestmentIDs = ids

	var investments []models.Investment
	if err := tx.Scopes(preloadProperty).
		Where("id IN ? AND calculator_id = ?", ids, calc.ID).
		Find(&investments).Error; err != nil {
		return comparisonResults{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(investments) != len(ids) {
		return comparisonResults{}, apperrors.Invalid("parameters.investmentIds", "must reference investments of this calculator")
	}

	if p.InterestRate == nil {
		rate := settingDecimal(tx, models.SettingMortgageRateCyprus, decimal.Zero).InexactFloat64()
		p.InterestRate = &rate
	}
	if p.LoanTerm == nil {
		term := float64(defaultComparisonTerm)
		p.LoanTerm = &term
	}

	byID := make(map[string]*models.Investment, len(investments))
	for i := range investments {
		applyEffectiveValues(&investments[i])
		byID[investments[i].ID] = &investments[i]
	}

	equity := calc.SelfEquity.InexactFloat64()
	rows := make([]comparisonRow, 0, len(ids))
	for _, id := range ids {
		inv := byID[id]
		price := inv.EffectivePrice.InexactFloat64()
		values := make(map[string]float64, len(p.Parameters))
		for _, param := range p.Parameters {
			switch param {
			case "price":
				values[param] = round2(price)
			case "monthlyRent":
				values[param] = round2(inv.EffectiveMonthlyRent.InexactFloat64())
			case "grossYield":
				values[param] = inv.GrossYield
			case "monthlyPayment":
				loan := math.Max(price-equity, 0)
				values[param] = round2(finance.MortgagePayment(loan, *p.InterestRate, *p.LoanTerm))
			}
		}
		rows = append(rows, comparisonRow{InvestmentID: id, Name: inv.Name, Values: values})
	}

	return comparisonResults{ComparisonData: comparisonData{
		Investments: ids,
		Parameters:  p.Parameters,
		Data:        rows,
	}}, nil
}

func yieldAnalysis(p yieldParams) yieldResults {
	annualRent := p.MonthlyRent * 12
	totalInvestment := p.PurchasePrice + p.ClosingCosts + p.RenovationCosts
	effectiveRent := annualRent * (1 - p.VacancyRate/100)
	expenses := effectiveRent * p.ExpenseRate / 100
	netIncome := effectiveRent - expenses

	return yieldResults{
		GrossYield:      round2(finance.Yield(p.PurchasePrice, annualRent)),
		NetYield:        round2(finance.Yield(totalInvestment, netIncome)),
		TotalInvestment: round2(totalInvestment),
		AnnualRent:      round2(annualRent),
		EffectiveRent:   round2(effectiveRent),
		Expenses:        round2(expenses),
		NetIncome:       round2(netIncome),
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
