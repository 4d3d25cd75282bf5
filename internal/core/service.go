// Package core is the simulator's service layer. Every mutation runs inside
// one store transaction that also recomputes the financial figures, so a
// committed state is always internally consistent.
package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"stratsim/internal/finance"
	"stratsim/internal/infra/persistence/memory"
	"stratsim/internal/input"
	"stratsim/internal/projection"
	"stratsim/internal/strategy"
	"stratsim/pkg/domain"
)

// Service exposes the simulator operations over a persistent store.
type Service struct {
	store   PersistentStore
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger routes service logs to logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetricsRecorder records one observation per operation.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer opens one span per operation.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditRecorder records one audit entry per operation.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// NewService constructs a service backed by store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		clock:   systemClock{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine gets the default rule set.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying store.
func (s *Service) Store() PersistentStore { return s.store }

// Close releases the store.
func (s *Service) Close() error { return s.store.Close() }

// run executes fn in a transaction, recomputes the financial figures in the
// same transaction and reports the outcome to every observer. fn returns the
// id of the entity it touched, or "" for none.
func (s *Service) run(ctx context.Context, op string, entity EntityType, fn func(tx Transaction) (string, error)) (Result, error) {
	started := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		id, err := fn(tx)
		if err != nil {
			return err
		}
		entityID = id
		recomputeFinancials(tx)
		return nil
	})
	finished := s.clock.Now()
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, finished.Sub(started))

	warnings := 0
	for _, v := range res.Violations {
		if v.Severity == SeverityBlock {
			continue
		}
		warnings++
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "entity", v.Entity, "entity_id", v.EntityID, "message", v.Message)
	}
	entry := AuditEntry{
		Operation:  op,
		Status:     AuditStatusSuccess,
		Entity:     entity,
		EntityID:   entityID,
		Warnings:   warnings,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Error("operation failed", "operation", op, "error", err)
	} else {
		s.logger.Debug("operation committed", "operation", op, "entity_id", entityID)
	}
	s.audit.Record(ctx, entry)
	return res, err
}

func recomputeFinancials(tx Transaction) {
	view := tx.Snapshot()
	tx.SetFinancialData(finance.Recompute(view.ListProducts(), view.ListStrategies()))
}

func (s *Service) view(ctx context.Context, fn func(TransactionView) error) error {
	return s.store.View(ctx, fn)
}

// AddClient creates a client with the next sequential id. Any product lines
// on c are ignored; use AttachProduct.
func (s *Service) AddClient(ctx context.Context, c Client) (Client, Result, error) {
	var created Client
	res, err := s.run(ctx, "add_client", EntityClient, func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateClient(Client{Name: c.Name, Type: c.Type})
		return strconv.Itoa(created.ID), err
	})
	return created, res, err
}

// UpdateClient renames and retypes a client. An unknown id is skipped.
func (s *Service) UpdateClient(ctx context.Context, id int, name string, kind domain.ClientType) (Client, Result, error) {
	var updated Client
	res, err := s.run(ctx, "update_client", EntityClient, func(tx Transaction) (string, error) {
		if _, ok := tx.Snapshot().FindClient(id); !ok {
			s.logger.Debug("update skipped: unknown client", "client_id", id)
			return "", nil
		}
		var err error
		updated, err = tx.UpdateClient(id, func(c *Client) error {
			c.Name = name
			c.Type = kind
			return nil
		})
		return strconv.Itoa(id), err
	})
	return updated, res, err
}

// AttachProduct creates or updates one client/product pairing. It reports
// false when the values are not positive or either id is unknown.
func (s *Service) AttachProduct(ctx context.Context, clientID, productID, transactions int, unitValue float64) (bool, Result, error) {
	var attached bool
	res, err := s.run(ctx, "attach_product", EntityClient, func(tx Transaction) (string, error) {
		attached = tx.AttachProduct(clientID, productID, transactions, unitValue)
		if !attached {
			return "", nil
		}
		return strconv.Itoa(clientID), nil
	})
	return attached, res, err
}

// ReplaceClientProducts rebuilds every pairing of a client from lines in
// one step. Invalid lines are skipped; an unknown client returns the zero
// Client.
func (s *Service) ReplaceClientProducts(ctx context.Context, clientID int, lines []domain.ProductLine) (Client, Result, error) {
	var updated Client
	res, err := s.run(ctx, "replace_client_products", EntityClient, func(tx Transaction) (string, error) {
		c, ok := tx.ReplaceClientProducts(clientID, lines)
		if !ok {
			return "", nil
		}
		updated = c
		return strconv.Itoa(clientID), nil
	})
	return updated, res, err
}

// AddProduct creates a product with the next sequential id. Transactions
// and UnitValue are kept as its baseline until a client is attached.
func (s *Service) AddProduct(ctx context.Context, p Product) (Product, Result, error) {
	var created Product
	res, err := s.run(ctx, "add_product", EntityProduct, func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateProduct(Product{
			Name:         p.Name,
			Unit:         p.Unit,
			Transactions: p.Transactions,
			UnitValue:    p.UnitValue,
			Growth:       p.Growth,
			MarketShare:  p.MarketShare,
			MarketGrowth: p.MarketGrowth,
		})
		return strconv.Itoa(created.ID), err
	})
	return created, res, err
}

// SetMarketPosition records a product's market growth, share and growth tag
// and emits the matching growth strategy. An unknown product is skipped and
// the zero Strategy returned.
func (s *Service) SetMarketPosition(ctx context.Context, productID int, marketGrowth, marketShare float64, tag domain.GrowthStrategy) (Strategy, Result, error) {
	var emitted Strategy
	res, err := s.run(ctx, "set_market_position", EntityProduct, func(tx Transaction) (string, error) {
		if _, ok := tx.Snapshot().FindProduct(productID); !ok {
			s.logger.Debug("market position skipped: unknown product", "product_id", productID)
			return "", nil
		}
		product, err := tx.UpdateProduct(productID, func(p *Product) error {
			p.MarketGrowth = marketGrowth
			p.MarketShare = marketShare
			p.StrategyTag = tag
			return nil
		})
		if err != nil {
			return "", err
		}
		emitted, err = tx.CreateStrategy(strategy.ForGrowth(product, tag))
		return strconv.Itoa(productID), err
	})
	return emitted, res, err
}

// SubmitPestel replaces the PESTEL selections with the averages of the raw
// form scores, one per category with 0 for a category without scores, and
// appends one strategy per category at or above the threshold. Repeated
// submissions append again.
func (s *Service) SubmitPestel(ctx context.Context, raw map[domain.PestelCategory][]string) ([]Strategy, Result, error) {
	var selections []domain.ScoreSelection
	for _, c := range domain.PestelCategories {
		selections = append(selections, domain.ScoreSelection{Tag: string(c), Average: input.Average(raw[c])})
	}
	var emitted []Strategy
	res, err := s.run(ctx, "submit_pestel", domain.EntitySelection, func(tx Transaction) (string, error) {
		tx.ReplaceSelections(domain.FrameworkPESTEL, selections)
		for _, candidate := range strategy.FromScores(strategy.AveragesFromSelections(selections)) {
			created, err := tx.CreateStrategy(candidate)
			if err != nil {
				return "", err
			}
			emitted = append(emitted, created)
		}
		return string(domain.FrameworkPESTEL), nil
	})
	return emitted, res, err
}

// SubmitPorter replaces the Porter selections, one per force with 0 for a
// force without scores. Porter scores are recorded only; they generate no
// strategies.
func (s *Service) SubmitPorter(ctx context.Context, raw map[domain.PorterForce][]string) (Result, error) {
	var selections []domain.ScoreSelection
	for _, f := range domain.PorterForces {
		selections = append(selections, domain.ScoreSelection{Tag: string(f), Average: input.Average(raw[f])})
	}
	return s.run(ctx, "submit_porter", domain.EntitySelection, func(tx Transaction) (string, error) {
		tx.ReplaceSelections(domain.FrameworkPorter, selections)
		return string(domain.FrameworkPorter), nil
	})
}

// AddManualStrategy creates an inactive manual strategy.
func (s *Service) AddManualStrategy(ctx context.Context, in strategy.ManualInput) (Strategy, Result, error) {
	var created Strategy
	res, err := s.run(ctx, "add_manual_strategy", EntityStrategy, func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateStrategy(strategy.Manual(in))
		return created.ID, err
	})
	return created, res, err
}

// SetStrategyActive toggles a strategy. An unknown id is skipped.
func (s *Service) SetStrategyActive(ctx context.Context, id string, active bool) (Strategy, Result, error) {
	var updated Strategy
	res, err := s.run(ctx, "set_strategy_active", EntityStrategy, func(tx Transaction) (string, error) {
		if _, ok := tx.Snapshot().FindStrategy(id); !ok {
			s.logger.Debug("toggle skipped: unknown strategy", "strategy_id", id)
			return "", nil
		}
		var err error
		updated, err = tx.UpdateStrategy(id, func(st *Strategy) error {
			st.Active = active
			return nil
		})
		return id, err
	})
	return updated, res, err
}

// SetCurrentSection records the visible section.
func (s *Service) SetCurrentSection(ctx context.Context, section domain.Section) (Result, error) {
	return s.run(ctx, "set_current_section", domain.EntitySession, func(tx Transaction) (string, error) {
		tx.SetCurrentSection(section)
		return string(section), nil
	})
}

// SetBudget replaces the reference budget.
func (s *Service) SetBudget(ctx context.Context, budget Budget) (Result, error) {
	return s.run(ctx, "set_budget", domain.EntityBudget, func(tx Transaction) (string, error) {
		tx.SetBudget(budget)
		return "", nil
	})
}

// Recompute rebuilds the financial figures without any other change.
func (s *Service) Recompute(ctx context.Context) (Result, error) {
	return s.run(ctx, "recompute", "", func(Transaction) (string, error) { return "", nil })
}

// SaveState writes the current state through the store.
func (s *Service) SaveState(ctx context.Context) error {
	started := s.clock.Now()
	err := s.store.Save(ctx)
	s.metrics.Observe(ctx, "save_state", err == nil, s.clock.Now().Sub(started))
	if err != nil {
		s.logger.Error("save failed", "error", err)
		return fmt.Errorf("save state: %w", err)
	}
	s.logger.Info("state saved")
	return nil
}

// LoadState replaces the current state with the saved one and recomputes
// the financial figures. It reports false when nothing was saved. When the
// recompute cannot commit, the previous state is put back.
func (s *Service) LoadState(ctx context.Context) (bool, error) {
	started := s.clock.Now()
	previous := s.store.ExportState()
	ok, err := s.store.Load(ctx)
	s.metrics.Observe(ctx, "load_state", err == nil, s.clock.Now().Sub(started))
	if err != nil {
		s.logger.Error("load failed", "error", err)
		return false, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		s.logger.Info("no saved state")
		return false, nil
	}
	if _, err := s.Recompute(ctx); err != nil {
		s.store.ImportState(previous)
		s.logger.Error("load rolled back", "error", err)
		return false, fmt.Errorf("load state: %w", err)
	}
	s.logger.Info("state loaded")
	return true, nil
}

// Clients returns every client with its product lines.
func (s *Service) Clients(ctx context.Context) ([]Client, error) {
	var out []Client
	err := s.view(ctx, func(v TransactionView) error {
		out = v.ListClients()
		return nil
	})
	return out, err
}

// Client returns one client or ErrNotFound.
func (s *Service) Client(ctx context.Context, id int) (Client, error) {
	var out Client
	err := s.view(ctx, func(v TransactionView) error {
		c, ok := v.FindClient(id)
		if !ok {
			return ErrNotFound{Entity: EntityClient, ID: strconv.Itoa(id)}
		}
		out = c
		return nil
	})
	return out, err
}

// Products returns every product with its client lines.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	err := s.view(ctx, func(v TransactionView) error {
		out = v.ListProducts()
		return nil
	})
	return out, err
}

// Product returns one product or ErrNotFound.
func (s *Service) Product(ctx context.Context, id int) (Product, error) {
	var out Product
	err := s.view(ctx, func(v TransactionView) error {
		p, ok := v.FindProduct(id)
		if !ok {
			return ErrNotFound{Entity: EntityProduct, ID: strconv.Itoa(id)}
		}
		out = p
		return nil
	})
	return out, err
}

// Strategies returns every strategy in creation order.
func (s *Service) Strategies(ctx context.Context) ([]Strategy, error) {
	var out []Strategy
	err := s.view(ctx, func(v TransactionView) error {
		out = v.ListStrategies()
		return nil
	})
	return out, err
}

// Selections returns the latest submission of a framework form.
func (s *Service) Selections(ctx context.Context, framework domain.Framework) ([]domain.ScoreSelection, error) {
	var out []domain.ScoreSelection
	err := s.view(ctx, func(v TransactionView) error {
		out = v.Selections(framework)
		return nil
	})
	return out, err
}

// CurrentSection returns the recorded section.
func (s *Service) CurrentSection(ctx context.Context) (domain.Section, error) {
	var out domain.Section
	err := s.view(ctx, func(v TransactionView) error {
		out = v.CurrentSection()
		return nil
	})
	return out, err
}

// Financials returns the figures computed by the last committed transaction.
func (s *Service) Financials(ctx context.Context) (FinancialData, error) {
	var out FinancialData
	err := s.view(ctx, func(v TransactionView) error {
		out = v.FinancialData()
		return nil
	})
	return out, err
}

// Budget returns the reference budget.
func (s *Service) Budget(ctx context.Context) (Budget, error) {
	var out Budget
	err := s.view(ctx, func(v TransactionView) error {
		out = v.Budget()
		return nil
	})
	return out, err
}

// Quadrants groups products by portfolio quadrant.
func (s *Service) Quadrants(ctx context.Context) (map[domain.Quadrant][]Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return strategy.Board(products), nil
}

// Monthly projects the active strategies over twelve months.
func (s *Service) Monthly(ctx context.Context) ([]projection.Month, error) {
	strategies, err := s.Strategies(ctx)
	if err != nil {
		return nil, err
	}
	return projection.Monthly(strategies), nil
}

// Quarterly projects the active strategies by quarter.
func (s *Service) Quarterly(ctx context.Context) ([4]float64, error) {
	strategies, err := s.Strategies(ctx)
	if err != nil {
		return [4]float64{}, err
	}
	return projection.Quarterly(strategies), nil
}

// Annual returns the twelve-month projection totals.
func (s *Service) Annual(ctx context.Context) (projection.Totals, error) {
	strategies, err := s.Strategies(ctx)
	if err != nil {
		return projection.Totals{}, err
	}
	return projection.Annual(strategies), nil
}

// BudgetComparison pairs the actual P&L lines with the budget.
func (s *Service) BudgetComparison(ctx context.Context) ([]projection.BudgetPair, error) {
	var out []projection.BudgetPair
	err := s.view(ctx, func(v TransactionView) error {
		out = projection.Budget(v.FinancialData(), v.Budget())
		return nil
	})
	return out, err
}

// BudgetDeltas compares every metric with the budget.
func (s *Service) BudgetDeltas(ctx context.Context) ([]finance.Delta, error) {
	var out []finance.Delta
	err := s.view(ctx, func(v TransactionView) error {
		out = finance.Deltas(v.FinancialData(), v.Budget())
		return nil
	})
	return out, err
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
