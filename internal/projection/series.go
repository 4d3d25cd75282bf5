// Package projection produces the P&L time series of active strategies.
// Every function is a pure function of its inputs; callers re-invoke after
// each mutation.
package projection

import "stratsim/pkg/domain"

// Months is the projection horizon.
const Months = 12

// Band classifies a month's result for presentation.
type Band string

const (
	BandDeficit  Band = "deficit"
	BandMarginal Band = "marginal"
	BandHealthy  Band = "healthy"
)

// HealthyThreshold is the result from which a month counts as healthy.
const HealthyThreshold = 10000.0

// Classify maps a result onto its band.
func Classify(result float64) Band {
	switch {
	case result < 0:
		return BandDeficit
	case result < HealthyThreshold:
		return BandMarginal
	default:
		return BandHealthy
	}
}

// Month is one row of the monthly P&L.
type Month struct {
	Month  int     `json:"month"`
	Income float64 `json:"income"`
	Cost   float64 `json:"cost"`
	Result float64 `json:"result"`
	Band   Band    `json:"band"`
}

// Totals sums a monthly series.
type Totals struct {
	Income float64 `json:"income"`
	Cost   float64 `json:"cost"`
	Result float64 `json:"result"`
}

// Monthly returns twelve rows. An active strategy contributes its revenue and
// cost impact to every month up to its duration.
func Monthly(strategies []domain.Strategy) []Month {
	out := make([]Month, 0, Months)
	for m := 1; m <= Months; m++ {
		row := Month{Month: m}
		for _, s := range strategies {
			if s.Active && s.DurationMonths >= m {
				row.Income += s.RevenueImpact
				row.Cost += s.CostImpact
			}
		}
		row.Result = row.Income - row.Cost
		row.Band = Classify(row.Result)
		out = append(out, row)
	}
	return out
}

// Sum totals a series of months.
func Sum(months []Month) Totals {
	var t Totals
	for _, m := range months {
		t.Income += m.Income
		t.Cost += m.Cost
		t.Result += m.Result
	}
	return t
}

// Quarterly walks each active strategy month by month and adds its net
// impact to quarter (month-1)/3. Months beyond the horizon are ignored.
func Quarterly(strategies []domain.Strategy) [4]float64 {
	var out [4]float64
	for _, s := range strategies {
		if !s.Active {
			continue
		}
		for m := 1; m <= s.DurationMonths && m <= Months; m++ {
			out[(m-1)/3] += s.RevenueImpact - s.CostImpact
		}
	}
	return out
}

// Annual returns the twelve-month totals.
func Annual(strategies []domain.Strategy) Totals {
	return Sum(Monthly(strategies))
}

// BudgetPair is one actual/budget figure.
type BudgetPair struct {
	Metric string  `json:"metric"`
	Actual float64 `json:"actual"`
	Budget float64 `json:"budget"`
}

// Budget pairs the actual and budget figures for revenue, operating costs,
// general expenses and EBITDA.
func Budget(actual domain.FinancialData, budget domain.Budget) []BudgetPair {
	return []BudgetPair{
		{Metric: "revenue", Actual: actual.Revenue, Budget: budget.Revenue},
		{Metric: "op_costs", Actual: actual.OpCosts, Budget: budget.OpCosts},
		{Metric: "gen_expenses", Actual: actual.GenExpenses, Budget: budget.GenExpenses},
		{Metric: "ebitda", Actual: actual.EBITDA, Budget: budget.EBITDA},
	}
}
