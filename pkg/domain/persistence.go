package domain

import "context"

// DefaultStateKey is the fixed identifier saved state is stored under.
const DefaultStateKey = "newpay-strategic-simulator"

// ProductLine is a requested client↔product pairing as entered on a form.
type ProductLine struct {
	ProductID    int     `json:"product_id"`
	Transactions int     `json:"transactions"`
	UnitValue    float64 `json:"unit_value"`
}

// Snapshot is the plain serializable record of everything the store owns.
// Persistence backends round-trip exactly this shape.
type Snapshot struct {
	Products         []Product        `json:"products"`
	Clients          []Client         `json:"clients"`
	Strategies       []Strategy       `json:"strategies"`
	PestelSelections []ScoreSelection `json:"pestel_selections"`
	PorterSelections []ScoreSelection `json:"porter_selections"`
	FinancialData    FinancialData    `json:"financial_data"`
	Budget           Budget           `json:"budget"`
	CurrentSection   Section          `json:"current_section"`
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateClient(Client) (Client, error)
	UpdateClient(id int, mutator func(*Client) error) (Client, error)
	CreateProduct(Product) (Product, error)
	UpdateProduct(id int, mutator func(*Product) error) (Product, error)
	// AttachProduct creates or updates one client↔product pairing. It reports
	// false, without error, when the values are not positive or either side
	// does not exist.
	AttachProduct(clientID, productID, transactions int, unitValue float64) bool
	// ReplaceClientProducts rebuilds every pairing of a client from lines;
	// invalid lines and unknown products are skipped. It reports false when
	// the client does not exist.
	ReplaceClientProducts(clientID int, lines []ProductLine) (Client, bool)
	CreateStrategy(Strategy) (Strategy, error)
	UpdateStrategy(id string, mutator func(*Strategy) error) (Strategy, error)
	ReplaceSelections(framework Framework, selections []ScoreSelection)
	SetFinancialData(FinancialData)
	SetBudget(Budget)
	SetCurrentSection(Section)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	FindStrategy(id string) (Strategy, bool)
	Selections(framework Framework) []ScoreSelection
	FinancialData() FinancialData
	Budget() Budget
	CurrentSection() Section
}

// PersistentStore is the abstraction over the in-memory store and its
// durable variants.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	ImportState(Snapshot)
	// Save writes the current state under the store's fixed key.
	Save(ctx context.Context) error
	// Load replaces the current state with the saved one. It reports false
	// when nothing was saved; on error the current state is left untouched.
	Load(ctx context.Context) (bool, error)
	Close() error
}
