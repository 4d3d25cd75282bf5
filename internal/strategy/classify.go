package strategy

import "stratsim/pkg/domain"

// Quadrant thresholds in percent.
const (
	GrowthThreshold = 10.0
	ShareThreshold  = 10.0
)

// Classify places a product in exactly one BCG quadrant.
func Classify(marketGrowth, marketShare float64) domain.Quadrant {
	highGrowth := marketGrowth >= GrowthThreshold
	highShare := marketShare >= ShareThreshold
	switch {
	case highGrowth && highShare:
		return domain.QuadrantStar
	case highGrowth:
		return domain.QuadrantQuestionMark
	case highShare:
		return domain.QuadrantCashCow
	default:
		return domain.QuadrantDog
	}
}

// Board groups products by quadrant, keeping product order within each
// quadrant. Every quadrant is present, possibly empty.
func Board(products []domain.Product) map[domain.Quadrant][]domain.Product {
	board := make(map[domain.Quadrant][]domain.Product, len(domain.Quadrants))
	for _, q := range domain.Quadrants {
		board[q] = []domain.Product{}
	}
	for _, p := range products {
		q := Classify(p.MarketGrowth, p.MarketShare)
		board[q] = append(board[q], p)
	}
	return board
}
