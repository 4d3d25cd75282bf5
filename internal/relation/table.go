// Package relation keeps the client↔product association. A single link table
// keyed by (client, product) is the source of truth; the per-client and
// per-product lists are generated from it, so the two sides cannot drift.
package relation

import (
	"sort"

	"stratsim/pkg/domain"
)

type key struct {
	client  int
	product int
}

// Link is one client↔product pairing.
type Link struct {
	ClientID     int
	ProductID    int
	Transactions int
	UnitValue    float64

	clientSeq  uint64
	productSeq uint64
}

// Revenue returns transactions times unit value.
func (l Link) Revenue() float64 {
	return float64(l.Transactions) * l.UnitValue
}

// Valid reports whether a pairing may be stored: both values must be positive.
func Valid(transactions int, unitValue float64) bool {
	return transactions > 0 && unitValue > 0
}

// Table stores links and the insertion order on each side.
type Table struct {
	links map[key]Link
	seq   uint64
}

// New returns an empty table.
func New() *Table {
	return &Table{links: make(map[key]Link)}
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	cp := &Table{links: make(map[key]Link, len(t.links)), seq: t.seq}
	for k, v := range t.links {
		cp.links[k] = v
	}
	return cp
}

// Len returns the number of links.
func (t *Table) Len() int { return len(t.links) }

func (t *Table) next() uint64 {
	t.seq++
	return t.seq
}

// Attach creates or updates the pairing. Invalid values leave the table
// untouched and report false. An update keeps the pairing's position on both
// sides.
func (t *Table) Attach(clientID, productID, transactions int, unitValue float64) bool {
	if !Valid(transactions, unitValue) {
		return false
	}
	k := key{client: clientID, product: productID}
	link, ok := t.links[k]
	if !ok {
		link = Link{ClientID: clientID, ProductID: productID, clientSeq: t.next(), productSeq: t.next()}
	}
	link.Transactions = transactions
	link.UnitValue = unitValue
	t.links[k] = link
	return true
}

// ReplaceClient drops every pairing of clientID and inserts lines in order.
// Lines with non-positive values or for which exists returns false are
// skipped; a repeated product keeps the last values. The re-inserted pairings
// move to the end of each product's list. It returns the number of pairings
// the client ends up with.
func (t *Table) ReplaceClient(clientID int, lines []domain.ProductLine, exists func(productID int) bool) int {
	t.RemoveClient(clientID)
	for _, line := range lines {
		if exists != nil && !exists(line.ProductID) {
			continue
		}
		t.Attach(clientID, line.ProductID, line.Transactions, line.UnitValue)
	}
	return len(t.ClientLinks(clientID))
}

// RemoveClient drops every pairing of the client.
func (t *Table) RemoveClient(clientID int) {
	for k := range t.links {
		if k.client == clientID {
			delete(t.links, k)
		}
	}
}

// ClientLinks returns the client's pairings in client-side order.
func (t *Table) ClientLinks(clientID int) []Link {
	var out []Link
	for k, v := range t.links {
		if k.client == clientID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].clientSeq < out[j].clientSeq })
	return out
}

// ProductLinks returns the product's pairings in product-side order.
func (t *Table) ProductLinks(productID int) []Link {
	var out []Link
	for k, v := range t.links {
		if k.product == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productSeq < out[j].productSeq })
	return out
}

// FromViews rebuilds a table from exported client and product lists. The
// client side is authoritative for values; pairings present only on the
// product side are kept as well. Invalid entries are dropped.
func FromViews(clients []domain.Client, products []domain.Product) *Table {
	t := New()
	for _, c := range clients {
		for _, line := range c.Products {
			if !Valid(line.Transactions, line.UnitValue) {
				continue
			}
			k := key{client: c.ID, product: line.ProductID}
			if _, dup := t.links[k]; dup {
				continue
			}
			t.links[k] = Link{
				ClientID:     c.ID,
				ProductID:    line.ProductID,
				Transactions: line.Transactions,
				UnitValue:    line.UnitValue,
				clientSeq:    t.next(),
			}
		}
	}
	placed := make(map[key]bool, len(t.links))
	for _, p := range products {
		for _, line := range p.Clients {
			k := key{client: line.ClientID, product: p.ID}
			if placed[k] {
				continue
			}
			link, ok := t.links[k]
			if !ok {
				if !Valid(line.Transactions, line.UnitValue) {
					continue
				}
				link = Link{
					ClientID:     line.ClientID,
					ProductID:    p.ID,
					Transactions: line.Transactions,
					UnitValue:    line.UnitValue,
					clientSeq:    t.next(),
				}
			}
			link.productSeq = t.next()
			t.links[k] = link
			placed[k] = true
		}
	}
	// Client-only pairings go to the end of their product lists.
	rest := make([]key, 0)
	for k := range t.links {
		if !placed[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return t.links[rest[i]].clientSeq < t.links[rest[j]].clientSeq })
	for _, k := range rest {
		link := t.links[k]
		link.productSeq = t.next()
		t.links[k] = link
	}
	return t
}

// ClientTotals sums transactions and revenue over a client's pairings.
func ClientTotals(links []Link) (transactions int, revenue float64) {
	for _, l := range links {
		transactions += l.Transactions
		revenue += l.Revenue()
	}
	return transactions, revenue
}

// ProductTotals sums transactions and averages unit values from scratch over
// a product's pairings. The mean is zero when there are no pairings.
func ProductTotals(links []Link) (transactions int, meanUnitValue float64) {
	if len(links) == 0 {
		return 0, 0
	}
	var sum float64
	for _, l := range links {
		transactions += l.Transactions
		sum += l.UnitValue
	}
	return transactions, sum / float64(len(links))
}
