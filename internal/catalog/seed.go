package catalog

import (
	"math/rand/v2"

	"stratsim/pkg/domain"
)

// Seeding ranges.
const (
	minClientsPerProduct = 3
	maxClientsPerProduct = 8
	minTransactions      = 10000
	maxTransactions      = 59999
	minUnitValue         = 0.5
	unitValueSpan        = 3
)

// Seeder fills a data set with random client/product links and market
// figures. A fixed seed gives a reproducible data set.
type Seeder struct {
	rng *rand.Rand
}

// NewSeeder returns a seeder driven by seed.
func NewSeeder(seed uint64) *Seeder {
	return &Seeder{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Seed picks 3 to 8 distinct clients for every product (capped by the
// number of clients), draws transactions in [10000, 59999] and a unit value
// in [0.5, 3.5) per link, and sets growth in [-5, 15), market share in
// [5, 35) and market growth in [5, 20) on every product. Links already in
// data are replaced.
func (s *Seeder) Seed(data Data) Data {
	out := data
	out.Products = append([]domain.Product(nil), data.Products...)
	out.Links = nil
	for i := range out.Products {
		p := &out.Products[i]
		n := minClientsPerProduct + s.rng.IntN(maxClientsPerProduct-minClientsPerProduct+1)
		if n > len(data.Clients) {
			n = len(data.Clients)
		}
		for _, idx := range s.rng.Perm(len(data.Clients))[:n] {
			out.Links = append(out.Links, Link{
				ClientID:     data.Clients[idx].ID,
				ProductID:    p.ID,
				Transactions: minTransactions + s.rng.IntN(maxTransactions-minTransactions+1),
				UnitValue:    minUnitValue + s.rng.Float64()*unitValueSpan,
			})
		}
		p.Growth = s.rng.Float64()*20 - 5
		p.MarketShare = s.rng.Float64()*30 + 5
		p.MarketGrowth = s.rng.Float64()*15 + 5
	}
	return out
}
