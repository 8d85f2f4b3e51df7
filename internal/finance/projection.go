package finance

// SweepPoint is one input value of a sensitivity sweep.
type SweepPoint struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// SensitivitySweep spreads steps+1 values linearly across ±rangePct around
// base. Callers map each value through the formula they are studying.
func SensitivitySweep(base, rangePct float64, steps int) []SweepPoint {
	if steps <= 0 {
		return []SweepPoint{{Value: base, Percentage: 0}}
	}
	stepSize := rangePct * 2 / float64(steps)
	points := make([]SweepPoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		pct := -rangePct + float64(i)*stepSize
		points = append(points, SweepPoint{
			Value:      base * (1 + pct/100),
			Percentage: pct,
		})
	}
	return points
}

// ProjectionYear is one year of a cash-flow projection.
type ProjectionYear struct {
	Year           int     `json:"year"`
	MonthlyRent    float64 `json:"monthlyRent"`
	AnnualCashflow float64 `json:"annualCashflow"`
	Cumulative     float64 `json:"cumulativeCashflow"`
	PropertyValue  float64 `json:"propertyValue"`
}

// ProjectionInput describes the first year of a projection.
type ProjectionInput struct {
	Years              int
	MonthlyRent        float64
	MonthlyExpenses    float64
	PropertyValue      float64
	AnnualAppreciation float64
	AnnualRentIncrease float64
}

// CashflowProjection compounds rent and value growth year over year. Monthly
// expenses are held flat.
func CashflowProjection(in ProjectionInput) []ProjectionYear {
	if in.Years <= 0 {
		return []ProjectionYear{}
	}
	years := make([]ProjectionYear, 0, in.Years)
	rent := in.MonthlyRent
	value := in.PropertyValue
	cumulative := 0.0
	for y := 1; y <= in.Years; y++ {
		annual := (rent - in.MonthlyExpenses) * 12
		cumulative += annual
		years = append(years, ProjectionYear{
			Year:           y,
			MonthlyRent:    rent,
			AnnualCashflow: annual,
			Cumulative:     cumulative,
			PropertyValue:  value,
		})
		rent *= 1 + in.AnnualRentIncrease/100
		value *= 1 + in.AnnualAppreciation/100
	}
	return years
}
