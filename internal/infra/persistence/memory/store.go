// Package memory provides the in-memory implementation of the simulator
// store. Every durable backend embeds it and only adds a place to write
// snapshots to.
package memory

import (
	"context"
	"sort"
	"sync"

	"stratsim/internal/relation"
	"stratsim/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// Snapshot aliases domain.Snapshot, the serializable state record.
	Snapshot = domain.Snapshot
)

// CommitHook receives the candidate state of a transaction before it replaces
// the live state. Returning an error aborts the commit.
type CommitHook func(ctx context.Context, snapshot Snapshot) error

// memoryState owns every entity. Client product lists and product client
// lists are not stored: they are generated from links on every read.
type memoryState struct {
	clients    map[int]domain.Client
	products   map[int]domain.Product
	strategies []domain.Strategy
	pestel     []domain.ScoreSelection
	porter     []domain.ScoreSelection
	financial  domain.FinancialData
	budget     domain.Budget
	section    domain.Section
	links      *relation.Table
}

func newMemoryState() memoryState {
	return memoryState{
		clients:   make(map[int]domain.Client),
		products:  make(map[int]domain.Product),
		financial: domain.DefaultFinancialData(),
		budget:    domain.DefaultBudget(),
		section:   domain.SectionClients,
		links:     relation.New(),
	}
}

func (s memoryState) clone() memoryState {
	cp := memoryState{
		clients:    make(map[int]domain.Client, len(s.clients)),
		products:   make(map[int]domain.Product, len(s.products)),
		strategies: make([]domain.Strategy, 0, len(s.strategies)),
		pestel:     append([]domain.ScoreSelection(nil), s.pestel...),
		porter:     append([]domain.ScoreSelection(nil), s.porter...),
		financial:  s.financial,
		budget:     s.budget,
		section:    s.section,
		links:      s.links.Clone(),
	}
	for k, v := range s.clients {
		cp.clients[k] = v
	}
	for k, v := range s.products {
		cp.products[k] = v
	}
	for _, st := range s.strategies {
		cp.strategies = append(cp.strategies, cloneStrategy(st))
	}
	return cp
}

func cloneStrategy(s domain.Strategy) domain.Strategy {
	if s.TargetProductID != nil {
		id := *s.TargetProductID
		s.TargetProductID = &id
	}
	return s
}

// decorateClient fills the generated product lines and totals of a client.
func decorateClient(state *memoryState, c domain.Client) domain.Client {
	links := state.links.ClientLinks(c.ID)
	c.Products = make([]domain.ClientProduct, 0, len(links))
	for _, l := range links {
		c.Products = append(c.Products, domain.ClientProduct{
			ProductID:    l.ProductID,
			Name:         state.products[l.ProductID].Name,
			Transactions: l.Transactions,
			UnitValue:    l.UnitValue,
			Revenue:      l.Revenue(),
		})
	}
	c.Transactions, c.Revenue = relation.ClientTotals(links)
	return c
}

// decorateProduct fills the generated client lines of a product. Totals come
// from the links; a product that was never linked keeps its baseline
// figures, which dropLinkedBaselines zeroes on the first link.
func decorateProduct(state *memoryState, p domain.Product) domain.Product {
	links := state.links.ProductLinks(p.ID)
	p.Clients = make([]domain.ProductClient, 0, len(links))
	for _, l := range links {
		p.Clients = append(p.Clients, domain.ProductClient{
			ClientID:     l.ClientID,
			Name:         state.clients[l.ClientID].Name,
			Transactions: l.Transactions,
			UnitValue:    l.UnitValue,
			Revenue:      l.Revenue(),
		})
	}
	if len(links) > 0 {
		p.Transactions, p.UnitValue = relation.ProductTotals(links)
	}
	return p
}

// dropLinkedBaselines zeroes the stored transactions and unit value of every
// product that has at least one link, so its totals only ever come from its
// clients, including after the last client is removed.
func (s *memoryState) dropLinkedBaselines() {
	for id, p := range s.products {
		if p.Transactions == 0 && p.UnitValue == 0 {
			continue
		}
		if len(s.links.ProductLinks(id)) == 0 {
			continue
		}
		p.Transactions, p.UnitValue = 0, 0
		s.products[id] = p
	}
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func nextID[V any](m map[int]V) int {
	highest := 0
	for id := range m {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

func snapshotFromMemoryState(state *memoryState) Snapshot {
	v := transactionView{state: state}
	return Snapshot{
		Products:         v.ListProducts(),
		Clients:          v.ListClients(),
		Strategies:       v.ListStrategies(),
		PestelSelections: v.Selections(domain.FrameworkPESTEL),
		PorterSelections: v.Selections(domain.FrameworkPorter),
		FinancialData:    state.financial,
		Budget:           state.budget,
		CurrentSection:   state.section,
	}
}

// memoryStateFromSnapshot rebuilds the link table from both generated sides
// and drops pairings that point at missing entities. Saved totals of linked
// products are derived, not baselines, and are dropped. An empty section
// falls back to the landing section.
func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, c := range s.Clients {
		base := c
		base.Products = nil
		state.clients[c.ID] = base
	}
	for _, p := range s.Products {
		base := p
		base.Clients = nil
		state.products[p.ID] = base
	}
	for _, st := range s.Strategies {
		state.strategies = append(state.strategies, cloneStrategy(st))
	}
	state.pestel = append([]domain.ScoreSelection(nil), s.PestelSelections...)
	state.porter = append([]domain.ScoreSelection(nil), s.PorterSelections...)
	state.financial = s.FinancialData
	state.budget = s.Budget
	if s.CurrentSection != "" {
		state.section = s.CurrentSection
	}
	state.links = relation.FromViews(s.Clients, s.Products)
	state.links.Prune(
		func(id int) bool { _, ok := state.clients[id]; return ok },
		func(id int) bool { _, ok := state.products[id]; return ok },
	)
	state.dropLinkedBaselines()
	return state
}

// Store provides an in-memory transactional store for the simulator.
type Store struct {
	mu       sync.RWMutex
	state    memoryState
	engine   *RulesEngine
	hook     CommitHook
	saved    *Snapshot
	key      string
	autosave bool
}

// Option configures a Store.
type Option func(*Store)

// WithCommitHook installs a hook run before every commit.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.hook = hook }
}

// WithStateKey sets the identifier saved state is stored under.
func WithStateKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithAutosave makes every committed transaction also save its state.
func WithAutosave(enabled bool) Option {
	return func(s *Store) { s.autosave = enabled }
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		key:    domain.DefaultStateKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.autosave && s.hook == nil {
		s.hook = s.keepSaved
	}
	return s
}

// keepSaved is the in-process autosave hook. It runs under the store lock.
func (s *Store) keepSaved(_ context.Context, snapshot Snapshot) error {
	s.saved = &snapshot
	return nil
}

// Autosave reports whether committed transactions are saved automatically.
func (s *Store) Autosave() bool {
	return s.autosave
}

// SetCommitHook replaces the commit hook. Durable backends use it to
// persist the candidate state of every transaction.
func (s *Store) SetCommitHook(hook CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// StateKey returns the identifier saved state is stored under.
func (s *Store) StateKey() string {
	return s.key
}

// RulesEngine exposes the configured engine so callers can register rules.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(&s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// Save keeps a copy of the current state inside the process.
func (s *Store) Save(_ context.Context) error {
	snapshot := s.ExportState()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = &snapshot
	return nil
}

// Load restores the copy kept by Save.
func (s *Store) Load(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return false, nil
	}
	s.state = memoryStateFromSnapshot(*s.saved)
	return true, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// ListClients returns every client in id order.
func (s *Store) ListClients() []domain.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListClients()
}

// ListProducts returns every product in id order.
func (s *Store) ListProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListProducts()
}

// ListStrategies returns every strategy in insertion order.
func (s *Store) ListStrategies() []domain.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListStrategies()
}

// RunInTransaction executes fn within a transactional copy of the store
// state. Rules run against the candidate state, then the commit hook, and
// only then is the candidate swapped in.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.hook != nil {
		if err := s.hook(ctx, snapshotFromMemoryState(&tx.state)); err != nil {
			return result, err
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}
