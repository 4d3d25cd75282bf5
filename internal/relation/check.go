package relation

import (
	"fmt"
	"sort"

	"stratsim/pkg/domain"
)

// Prune drops pairings whose client or product no longer exists.
func (t *Table) Prune(clientExists, productExists func(id int) bool) int {
	removed := 0
	for k := range t.links {
		if !clientExists(k.client) || !productExists(k.product) {
			delete(t.links, k)
			removed++
		}
	}
	return removed
}

// Mismatch describes a pairing that is not mirrored identically on both sides.
type Mismatch struct {
	ClientID  int
	ProductID int
	Reason    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("client %d / product %d: %s", m.ClientID, m.ProductID, m.Reason)
}

// Mismatches compares the client-side and product-side lists and returns
// every pairing that is missing on one side or carries different values.
func Mismatches(clients []domain.Client, products []domain.Product) []Mismatch {
	clientSide := make(map[key]domain.ClientProduct)
	for _, c := range clients {
		for _, line := range c.Products {
			clientSide[key{client: c.ID, product: line.ProductID}] = line
		}
	}
	productSide := make(map[key]domain.ProductClient)
	for _, p := range products {
		for _, line := range p.Clients {
			productSide[key{client: line.ClientID, product: p.ID}] = line
		}
	}

	var out []Mismatch
	for k, cl := range clientSide {
		pl, ok := productSide[k]
		switch {
		case !ok:
			out = append(out, Mismatch{ClientID: k.client, ProductID: k.product, Reason: "missing on product side"})
		case cl.Transactions != pl.Transactions || cl.UnitValue != pl.UnitValue || cl.Revenue != pl.Revenue:
			out = append(out, Mismatch{ClientID: k.client, ProductID: k.product, Reason: "values differ"})
		}
	}
	for k := range productSide {
		if _, ok := clientSide[k]; !ok {
			out = append(out, Mismatch{ClientID: k.client, ProductID: k.product, Reason: "missing on client side"})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
