// Package finance derives the financial figures from products and strategies.
package finance

import (
	"math"

	"stratsim/pkg/domain"
)

// Policy ratios applied to revenue.
const (
	OpCostRatio     = 0.30
	GenExpenseRatio = 0.20
)

// Baselines before strategy adjustments.
const (
	BaseNPS    = 50.0
	BaseChurn  = 5.0
	BaseUptime = 99.5
)

// Recompute derives FinancialData from scratch. It is pure: the same
// products and strategies always give the same figures.
func Recompute(products []domain.Product, strategies []domain.Strategy) domain.FinancialData {
	var revenue float64
	for _, p := range products {
		revenue += p.Revenue()
	}
	opCosts := revenue * OpCostRatio
	genExpenses := revenue * GenExpenseRatio
	ebitda := revenue - opCosts - genExpenses

	var npsAdj, churnAdj float64
	for _, s := range strategies {
		if !s.Active {
			continue
		}
		npsAdj += s.RevenueImpact / 10
		churnAdj -= s.RevenueImpact / 20
	}

	return domain.FinancialData{
		Revenue:     revenue,
		OpCosts:     opCosts,
		GenExpenses: genExpenses,
		EBITDA:      ebitda,
		ROI:         ROI(ebitda, opCosts, genExpenses),
		NPS:         math.Min(100, math.Max(0, BaseNPS+npsAdj)),
		Churn:       math.Max(0, BaseChurn+churnAdj),
		Uptime:      BaseUptime,
	}
}

// ROI returns ebitda over total costs as a percentage, or 0 when there are no costs.
func ROI(ebitda, opCosts, genExpenses float64) float64 {
	invested := opCosts + genExpenses
	if invested <= 0 {
		return 0
	}
	return ebitda / invested * 100
}

// Delta is the difference between an actual figure and its budget.
type Delta struct {
	Metric  string  `json:"metric"`
	Actual  float64 `json:"actual"`
	Budget  float64 `json:"budget"`
	Diff    float64 `json:"diff"`
	Percent float64 `json:"percent"`
}

// Deltas compares every shared metric of actual against budget. Percent is
// zero when the budget figure is zero.
func Deltas(actual domain.FinancialData, budget domain.Budget) []Delta {
	pairs := []struct {
		name   string
		actual float64
		budget float64
	}{
		{"revenue", actual.Revenue, budget.Revenue},
		{"op_costs", actual.OpCosts, budget.OpCosts},
		{"gen_expenses", actual.GenExpenses, budget.GenExpenses},
		{"ebitda", actual.EBITDA, budget.EBITDA},
		{"roi", actual.ROI, budget.ROI},
		{"nps", actual.NPS, budget.NPS},
		{"churn", actual.Churn, budget.Churn},
		{"uptime", actual.Uptime, budget.Uptime},
	}
	out := make([]Delta, 0, len(pairs))
	for _, p := range pairs {
		d := Delta{Metric: p.name, Actual: p.actual, Budget: p.budget, Diff: p.actual - p.budget}
		if p.budget != 0 {
			d.Percent = d.Diff / p.budget * 100
		}
		out = append(out, d)
	}
	return out
}
