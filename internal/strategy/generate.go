// Package strategy turns framework scores and growth-quadrant choices into
// candidate strategies. Generated strategies start inactive and carry no ID;
// the store assigns one when they are appended.
package strategy

import (
	"fmt"
	"math"

	"stratsim/pkg/domain"
)

// ScoreThreshold is the minimum PESTEL category average that emits a strategy.
const ScoreThreshold = 3.5

const (
	scoreInvestment  = 50000
	growthInvestment = 70000
	defaultDuration  = 6
)

// Averages maps each PESTEL category to its submitted average.
type Averages map[domain.PestelCategory]float64

// AveragesFromSelections rebuilds Averages from stored selections, ignoring
// tags that are not PESTEL categories.
func AveragesFromSelections(selections []domain.ScoreSelection) Averages {
	out := make(Averages, len(selections))
	for _, s := range selections {
		cat := domain.PestelCategory(s.Tag)
		if cat.Valid() {
			out[cat] = s.Average
		}
	}
	return out
}

// round is half-up rounding.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// FromScores emits one strategy for every category whose average reaches
// ScoreThreshold, in category order. It never deduplicates: submitting the
// same averages twice yields the same strategies twice once appended.
func FromScores(averages Averages) []domain.Strategy {
	var out []domain.Strategy
	for _, cat := range domain.PestelCategories {
		avg, ok := averages[cat]
		if !ok || avg < ScoreThreshold {
			continue
		}
		out = append(out, domain.Strategy{
			Name:           fmt.Sprintf("Adapt to %s change", cat.Label()),
			Type:           domain.StrategyScores,
			Investment:     scoreInvestment,
			DurationMonths: defaultDuration,
			RevenueImpact:  round(avg * 5),
			CostImpact:     round(avg * 2),
		})
	}
	return out
}

type growthTemplate struct {
	name   string
	impact float64
}

var growthTemplates = map[domain.GrowthStrategy]growthTemplate{
	domain.GrowthPenetration:     {"Deepen market penetration for %s", 8},
	domain.GrowthDevelopment:     {"Develop new features for %s", 12},
	domain.GrowthExpansion:       {"Expand %s into new segments", 15},
	domain.GrowthDiversification: {"Diversify product: %s case", 18},
	domain.GrowthDefault:         {"Growth strategy for %s", 10},
}

// ForGrowth builds the growth strategy for a product and tag. Unknown tags
// use the default template.
func ForGrowth(product domain.Product, tag domain.GrowthStrategy) domain.Strategy {
	tpl, ok := growthTemplates[tag]
	if !ok {
		tpl = growthTemplates[domain.GrowthDefault]
	}
	target := product.ID
	return domain.Strategy{
		Name:            fmt.Sprintf(tpl.name, product.Name),
		Type:            domain.StrategyGrowth,
		TargetProductID: &target,
		Investment:      growthInvestment,
		DurationMonths:  defaultDuration,
		RevenueImpact:   tpl.impact,
		CostImpact:      round(tpl.impact / 2),
	}
}

// ManualInput carries the user-entered fields of a strategy.
type ManualInput struct {
	Name            string
	TargetProductID *int
	Investment      float64
	DurationMonths  int
	RevenueImpact   float64
}

// Manual builds a user-entered strategy. Cost impact is half the revenue
// impact, rounded.
func Manual(in ManualInput) domain.Strategy {
	var target *int
	if in.TargetProductID != nil {
		id := *in.TargetProductID
		target = &id
	}
	return domain.Strategy{
		Name:            in.Name,
		Type:            domain.StrategyManual,
		TargetProductID: target,
		Investment:      in.Investment,
		DurationMonths:  in.DurationMonths,
		RevenueImpact:   in.RevenueImpact,
		CostImpact:      round(in.RevenueImpact / 2),
	}
}
