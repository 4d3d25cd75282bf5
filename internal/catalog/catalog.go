// Package catalog provides the initial data set the simulator starts from:
// products, clients and predefined strategies read from catalog files, a
// minimal built-in fallback, and random seeding of client/product links.
package catalog

import (
	"context"

	"stratsim/pkg/domain"
)

// Link is one seeded client/product relationship.
type Link struct {
	ClientID     int
	ProductID    int
	Transactions int
	UnitValue    float64
}

// Data is an initial data set.
type Data struct {
	Products   []domain.Product
	Clients    []domain.Client
	Strategies []domain.Strategy
	Links      []Link
}

// Source loads an initial data set.
type Source interface {
	Load(ctx context.Context) (Data, error)
}

// Minimal returns the built-in data set used when the catalog cannot be
// read. It has no links; the seeder fills them in.
func Minimal() Data {
	return Data{
		Products: []domain.Product{
			{ID: 1, Name: "Card Processing", Unit: "transaction"},
			{ID: 2, Name: "Instant Transfers", Unit: "transfer"},
			{ID: 3, Name: "Digital Wallet", Unit: "payment"},
		},
		Clients: []domain.Client{
			{ID: 1, Name: "Banco Norte", Type: domain.ClientTypeBank},
			{ID: 2, Name: "Banco Sur", Type: domain.ClientTypeBank},
			{ID: 3, Name: "Banco Central Cooperativo", Type: domain.ClientTypeBank},
			{ID: 4, Name: "PayFlow", Type: domain.ClientTypeFintech},
			{ID: 5, Name: "Lumen Pay", Type: domain.ClientTypeFintech},
			{ID: 6, Name: "Kuanto", Type: domain.ClientTypeFintech},
			{ID: 7, Name: "Orbita Finance", Type: domain.ClientTypeFintech},
			{ID: 8, Name: "Banco Andino", Type: domain.ClientTypeBank},
		},
	}
}

// Static is a Source that always returns the same data. Tests and the
// fallback path use it.
type Static struct {
	Data Data
}

// Load returns a copy of the static data.
func (s Static) Load(context.Context) (Data, error) {
	return Data{
		Products:   append([]domain.Product(nil), s.Data.Products...),
		Clients:    append([]domain.Client(nil), s.Data.Clients...),
		Strategies: append([]domain.Strategy(nil), s.Data.Strategies...),
		Links:      append([]Link(nil), s.Data.Links...),
	}, nil
}
