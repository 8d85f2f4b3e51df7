// Package finance holds the closed-form real-estate formulas used to build
// analysis results. Every function is pure; rates are percentages (4.5 means
// 4.5%) and ratio functions return 0 instead of dividing by zero.
package finance

import "math"

// MortgagePayment returns the monthly payment of an amortizing loan.
func MortgagePayment(principal, annualRate, termYears float64) float64 {
	if principal <= 0 || annualRate <= 0 || termYears <= 0 {
		return 0
	}
	r := annualRate / 100 / 12
	n := termYears * 12
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1)
}

// TotalInterest returns the interest paid over the full term.
func TotalInterest(principal, annualRate, termYears float64) float64 {
	payment := MortgagePayment(principal, annualRate, termYears)
	if payment == 0 {
		return 0
	}
	return payment*termYears*12 - principal
}

// AmortizationRow is one month of a repayment schedule.
type AmortizationRow struct {
	Period    int     `json:"period"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// AmortizationSchedule lists the monthly split between principal and interest.
// The schedule stops early once the balance is repaid; balances never go negative.
func AmortizationSchedule(principal, annualRate, termYears float64) []AmortizationRow {
	payment := MortgagePayment(principal, annualRate, termYears)
	if payment == 0 {
		return []AmortizationRow{}
	}
	r := annualRate / 100 / 12
	n := int(math.Round(termYears * 12))

	rows := make([]AmortizationRow, 0, n)
	balance := principal
	for period := 1; period <= n; period++ {
		interest := balance * r
		principalPart := payment - interest
		balance -= principalPart
		rows = append(rows, AmortizationRow{
			Period:    period,
			Payment:   payment,
			Principal: principalPart,
			Interest:  interest,
			Balance:   math.Max(balance, 0),
		})
		if balance <= 0 {
			break
		}
	}
	return rows
}

// CashFlow is the monthly rent left after the mortgage, management and other expenses.
func CashFlow(monthlyRent, mortgagePayment, managementFee, otherExpenses float64) float64 {
	return monthlyRent - mortgagePayment - managementFee - otherExpenses
}

// ROI is the annual cash flow as a percentage of the initial investment.
func ROI(annualCashFlow, initialInvestment float64) float64 {
	if initialInvestment <= 0 {
		return 0
	}
	return annualCashFlow / initialInvestment * 100
}

// PaybackPeriod is the number of years of cash flow needed to recover the investment.
func PaybackPeriod(initialInvestment, annualCashFlow float64) float64 {
	if annualCashFlow <= 0 {
		return 0
	}
	return initialInvestment / annualCashFlow
}

// Yield is the gross annual rent as a percentage of the price.
func Yield(price, annualRent float64) float64 {
	if price <= 0 {
		return 0
	}
	return annualRent / price * 100
}

// CapRate is net operating income as a percentage of property value.
func CapRate(annualNOI, propertyValue float64) float64 {
	if propertyValue <= 0 {
		return 0
	}
	return annualNOI / propertyValue * 100
}

// CashOnCash is pre-tax cash flow as a percentage of the cash invested.
func CashOnCash(annualPreTaxCashFlow, totalCashInvested float64) float64 {
	if totalCashInvested <= 0 {
		return 0
	}
	return annualPreTaxCashFlow / totalCashInvested * 100
}

// GRM is the gross rent multiplier.
func GRM(propertyValue, annualGrossRent float64) float64 {
	if annualGrossRent <= 0 {
		return 0
	}
	return propertyValue / annualGrossRent
}

// DSCR is the debt service coverage ratio.
func DSCR(annualNOI, annualDebtService float64) float64 {
	if annualDebtService <= 0 {
		return 0
	}
	return annualNOI / annualDebtService
}

// LTV is the loan-to-value ratio as a percentage.
func LTV(loanAmount, propertyValue float64) float64 {
	if propertyValue <= 0 {
		return 0
	}
	return loanAmount / propertyValue * 100
}

// PriceInLocalCurrency converts a foreign-currency price with the given rate.
func PriceInLocalCurrency(price, exchangeRate float64) float64 {
	return price * exchangeRate
}

// PriceWithVAT adds VAT given as a percentage.
func PriceWithVAT(priceWithoutVAT, vatRate float64) float64 {
	return priceWithoutVAT * (1 + vatRate/100)
}

// ManagementFee is the monthly fee charged as a percentage of rent.
func ManagementFee(monthlyRent, feePercentage float64) float64 {
	return monthlyRent * feePercentage / 100
}
