package memory

import (
	"fmt"

	"github.com/google/uuid"

	"stratsim/pkg/domain"
)

// transaction represents a mutation set applied to a cloned store state.
type transaction struct {
	state   memoryState
	changes []Change
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListClients returns every client in id order with generated product lines.
func (v transactionView) ListClients() []domain.Client {
	out := make([]domain.Client, 0, len(v.state.clients))
	for _, id := range sortedIDs(v.state.clients) {
		out = append(out, decorateClient(v.state, v.state.clients[id]))
	}
	return out
}

// ListProducts returns every product in id order with generated client lines.
func (v transactionView) ListProducts() []domain.Product {
	out := make([]domain.Product, 0, len(v.state.products))
	for _, id := range sortedIDs(v.state.products) {
		out = append(out, decorateProduct(v.state, v.state.products[id]))
	}
	return out
}

// ListStrategies returns every strategy in insertion order.
func (v transactionView) ListStrategies() []domain.Strategy {
	out := make([]domain.Strategy, 0, len(v.state.strategies))
	for _, s := range v.state.strategies {
		out = append(out, cloneStrategy(s))
	}
	return out
}

// FindClient returns the client by id.
func (v transactionView) FindClient(id int) (domain.Client, bool) {
	c, ok := v.state.clients[id]
	if !ok {
		return domain.Client{}, false
	}
	return decorateClient(v.state, c), true
}

// FindProduct returns the product by id.
func (v transactionView) FindProduct(id int) (domain.Product, bool) {
	p, ok := v.state.products[id]
	if !ok {
		return domain.Product{}, false
	}
	return decorateProduct(v.state, p), true
}

// FindStrategy returns the strategy by id.
func (v transactionView) FindStrategy(id string) (domain.Strategy, bool) {
	for _, s := range v.state.strategies {
		if s.ID == id {
			return cloneStrategy(s), true
		}
	}
	return domain.Strategy{}, false
}

// Selections returns the latest submission of a framework form.
func (v transactionView) Selections(framework domain.Framework) []domain.ScoreSelection {
	switch framework {
	case domain.FrameworkPESTEL:
		return append([]domain.ScoreSelection{}, v.state.pestel...)
	case domain.FrameworkPorter:
		return append([]domain.ScoreSelection{}, v.state.porter...)
	default:
		return nil
	}
}

func (v transactionView) FinancialData() domain.FinancialData { return v.state.financial }

func (v transactionView) Budget() domain.Budget { return v.state.budget }

func (v transactionView) CurrentSection() domain.Section { return v.state.section }

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) view() transactionView {
	return transactionView{state: &tx.state}
}

// CreateClient stores a new client. A zero id is assigned the next free one.
// Product lines on the input are ignored; pairings go through AttachProduct
// or ReplaceClientProducts.
func (tx *transaction) CreateClient(c domain.Client) (domain.Client, error) {
	if c.ID == 0 {
		c.ID = nextID(tx.state.clients)
	}
	if _, exists := tx.state.clients[c.ID]; exists {
		return domain.Client{}, fmt.Errorf("client %d already exists", c.ID)
	}
	c.Products = nil
	c.Transactions, c.Revenue = 0, 0
	tx.state.clients[c.ID] = c
	created := decorateClient(&tx.state, c)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionCreate, After: created})
	return created, nil
}

// UpdateClient mutates a client. Only name and type are kept from the
// mutated value; product lines and totals are generated.
func (tx *transaction) UpdateClient(id int, mutator func(*domain.Client) error) (domain.Client, error) {
	current, ok := tx.state.clients[id]
	if !ok {
		return domain.Client{}, fmt.Errorf("client %d not found", id)
	}
	before := decorateClient(&tx.state, current)
	next := before
	if err := mutator(&next); err != nil {
		return domain.Client{}, err
	}
	current.Name = next.Name
	current.Type = next.Type
	tx.state.clients[id] = current
	after := decorateClient(&tx.state, current)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionUpdate, Before: before, After: after})
	return after, nil
}

// CreateProduct stores a new product. Its transactions and unit value are
// the baseline reported until the first client is attached; from then on
// totals come from client links only.
func (tx *transaction) CreateProduct(p domain.Product) (domain.Product, error) {
	if p.ID == 0 {
		p.ID = nextID(tx.state.products)
	}
	if _, exists := tx.state.products[p.ID]; exists {
		return domain.Product{}, fmt.Errorf("product %d already exists", p.ID)
	}
	p.Clients = nil
	tx.state.products[p.ID] = p
	created := decorateProduct(&tx.state, p)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: created})
	return created, nil
}

// UpdateProduct mutates a product. Client lines are generated and ignored
// on the mutated value; transactions and unit value only change the
// baseline.
func (tx *transaction) UpdateProduct(id int, mutator func(*domain.Product) error) (domain.Product, error) {
	current, ok := tx.state.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d not found", id)
	}
	before := decorateProduct(&tx.state, current)
	next := before
	if err := mutator(&next); err != nil {
		return domain.Product{}, err
	}
	next.ID = id
	next.Clients = nil
	if len(before.Clients) > 0 {
		next.Transactions = current.Transactions
		next.UnitValue = current.UnitValue
	}
	tx.state.products[id] = next
	after := decorateProduct(&tx.state, next)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: after})
	return after, nil
}

// AttachProduct creates or updates a pairing.
func (tx *transaction) AttachProduct(clientID, productID, transactions int, unitValue float64) bool {
	if _, ok := tx.state.clients[clientID]; !ok {
		return false
	}
	if _, ok := tx.state.products[productID]; !ok {
		return false
	}
	before, _ := tx.view().FindClient(clientID)
	if !tx.state.links.Attach(clientID, productID, transactions, unitValue) {
		return false
	}
	tx.state.dropLinkedBaselines()
	after, _ := tx.view().FindClient(clientID)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionUpdate, Before: before, After: after})
	return true
}

// ReplaceClientProducts rebuilds every pairing of a client.
func (tx *transaction) ReplaceClientProducts(clientID int, lines []domain.ProductLine) (domain.Client, bool) {
	if _, ok := tx.state.clients[clientID]; !ok {
		return domain.Client{}, false
	}
	before, _ := tx.view().FindClient(clientID)
	tx.state.links.ReplaceClient(clientID, lines, func(productID int) bool {
		_, ok := tx.state.products[productID]
		return ok
	})
	tx.state.dropLinkedBaselines()
	after, _ := tx.view().FindClient(clientID)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionUpdate, Before: before, After: after})
	return after, true
}

// CreateStrategy appends a strategy. A blank id is assigned a UUID.
func (tx *transaction) CreateStrategy(s domain.Strategy) (domain.Strategy, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, exists := tx.view().FindStrategy(s.ID); exists {
		return domain.Strategy{}, fmt.Errorf("strategy %q already exists", s.ID)
	}
	tx.state.strategies = append(tx.state.strategies, cloneStrategy(s))
	tx.recordChange(Change{Entity: domain.EntityStrategy, Action: domain.ActionCreate, After: cloneStrategy(s)})
	return cloneStrategy(s), nil
}

// UpdateStrategy mutates a strategy in place, keeping its position.
func (tx *transaction) UpdateStrategy(id string, mutator func(*domain.Strategy) error) (domain.Strategy, error) {
	for i, current := range tx.state.strategies {
		if current.ID != id {
			continue
		}
		before := cloneStrategy(current)
		next := cloneStrategy(current)
		if err := mutator(&next); err != nil {
			return domain.Strategy{}, err
		}
		next.ID = id
		tx.state.strategies[i] = cloneStrategy(next)
		tx.recordChange(Change{Entity: domain.EntityStrategy, Action: domain.ActionUpdate, Before: before, After: cloneStrategy(next)})
		return cloneStrategy(next), nil
	}
	return domain.Strategy{}, fmt.Errorf("strategy %q not found", id)
}

// ReplaceSelections swaps the whole selection list of a framework.
func (tx *transaction) ReplaceSelections(framework domain.Framework, selections []domain.ScoreSelection) {
	cp := append([]domain.ScoreSelection{}, selections...)
	var before []domain.ScoreSelection
	switch framework {
	case domain.FrameworkPESTEL:
		before, tx.state.pestel = tx.state.pestel, cp
	case domain.FrameworkPorter:
		before, tx.state.porter = tx.state.porter, cp
	default:
		return
	}
	tx.recordChange(Change{Entity: domain.EntitySelection, Action: domain.ActionUpdate, Before: before, After: cp})
}

// SetFinancialData replaces the derived figures.
func (tx *transaction) SetFinancialData(fd domain.FinancialData) {
	tx.state.financial = fd
}

// SetBudget replaces the reference budget.
func (tx *transaction) SetBudget(b domain.Budget) {
	before := tx.state.budget
	tx.state.budget = b
	tx.recordChange(Change{Entity: domain.EntityBudget, Action: domain.ActionUpdate, Before: before, After: b})
}

// SetCurrentSection records the visible section.
func (tx *transaction) SetCurrentSection(section domain.Section) {
	before := tx.state.section
	tx.state.section = section
	tx.recordChange(Change{Entity: domain.EntitySession, Action: domain.ActionUpdate, Before: before, After: section})
}
