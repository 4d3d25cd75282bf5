package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stratsim/pkg/domain"
)

func seed(t *testing.T, store *Store) (clientID, productA, productB int) {
	t.Helper()
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		a, err := tx.CreateProduct(domain.Product{Name: "Cards", Unit: "tx", Transactions: 500, UnitValue: 1.2})
		if err != nil {
			return err
		}
		b, err := tx.CreateProduct(domain.Product{Name: "Transfers", Unit: "tx"})
		if err != nil {
			return err
		}
		c, err := tx.CreateClient(domain.Client{Name: "Acme Bank", Type: domain.ClientTypeBank})
		if err != nil {
			return err
		}
		clientID, productA, productB = c.ID, a.ID, b.ID
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return clientID, productA, productB
}

func assertMirrored(t *testing.T, store *Store) {
	t.Helper()
	clientSide := map[[2]int]domain.ClientProduct{}
	for _, c := range store.ListClients() {
		var tx int
		var rev float64
		for _, line := range c.Products {
			clientSide[[2]int{c.ID, line.ProductID}] = line
			tx += line.Transactions
			rev += line.Revenue
		}
		if c.Transactions != tx || c.Revenue != rev {
			t.Fatalf("client %d totals drifted: %d/%v vs %d/%v", c.ID, c.Transactions, c.Revenue, tx, rev)
		}
	}
	seen := 0
	for _, p := range store.ListProducts() {
		for _, line := range p.Clients {
			cl, ok := clientSide[[2]int{line.ClientID, p.ID}]
			if !ok {
				t.Fatalf("product %d lists client %d which does not list it back", p.ID, line.ClientID)
			}
			if cl.Transactions != line.Transactions || cl.UnitValue != line.UnitValue || cl.Revenue != line.Revenue {
				t.Fatalf("pairing %d/%d differs between sides", line.ClientID, p.ID)
			}
			seen++
		}
	}
	if seen != len(clientSide) {
		t.Fatalf("expected %d mirrored pairings, got %d", len(clientSide), seen)
	}
}

func TestSequentialIDs(t *testing.T) {
	store := NewStore(nil)
	clientID, a, b := seed(t, store)
	if clientID != 1 || a != 1 || b != 2 {
		t.Fatalf("unexpected ids %d %d %d", clientID, a, b)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateClient(domain.Client{ID: 1, Name: "dup"})
		return err
	})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestAttachKeepsBothSidesInSync(t *testing.T) {
	store := NewStore(nil)
	clientID, a, b := seed(t, store)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if !tx.AttachProduct(clientID, a, 100, 2) {
			t.Fatalf("expected attach to succeed")
		}
		if tx.AttachProduct(clientID, b, 0, 2) {
			t.Fatalf("expected zero transactions to be rejected")
		}
		if tx.AttachProduct(clientID, 99, 10, 1) || tx.AttachProduct(42, a, 10, 1) {
			t.Fatalf("expected unknown references to be skipped")
		}
		view := tx.Snapshot()
		c, _ := view.FindClient(clientID)
		if c.Transactions != 100 || c.Revenue != 200 {
			t.Fatalf("unexpected client totals inside tx: %+v", c)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	assertMirrored(t, store)
	products := store.ListProducts()
	if products[0].Transactions != 100 || products[0].UnitValue != 2 {
		t.Fatalf("linked product totals should come from pairings: %+v", products[0])
	}
	if products[0].Clients[0].Name != "Acme Bank" {
		t.Fatalf("expected client name on product side, got %q", products[0].Clients[0].Name)
	}
	if store.ListClients()[0].Products[0].Name != "Cards" {
		t.Fatalf("expected product name on client side")
	}
}

func TestReplaceClientProductsIsAtomic(t *testing.T) {
	store := NewStore(nil)
	clientID, a, b := seed(t, store)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.AttachProduct(clientID, a, 10, 1)
		return nil
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	errBoom := errors.New("boom")
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.ReplaceClientProducts(clientID, []domain.ProductLine{{ProductID: b, Transactions: 5, UnitValue: 3}})
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := store.ListClients()[0].Products; len(got) != 1 || got[0].ProductID != a {
		t.Fatalf("failed transaction leaked into state: %+v", got)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		c, ok := tx.ReplaceClientProducts(clientID, []domain.ProductLine{
			{ProductID: b, Transactions: 5, UnitValue: 3},
			{ProductID: 77, Transactions: 5, UnitValue: 3},
			{ProductID: a, Transactions: -1, UnitValue: 3},
		})
		if !ok || len(c.Products) != 1 || c.Revenue != 15 {
			t.Fatalf("unexpected replaced client %+v", c)
		}
		if _, ok := tx.ReplaceClientProducts(404, nil); ok {
			t.Fatalf("expected unknown client to report false")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	assertMirrored(t, store)
	products := store.ListProducts()
	if len(products[0].Clients) != 0 || products[0].Transactions != 0 || products[0].UnitValue != 0 {
		t.Fatalf("product that lost its last client must total zero: %+v", products[0])
	}
}

func TestBaselineOnlyBeforeFirstLink(t *testing.T) {
	store := NewStore(nil)
	clientID, a, b := seed(t, store)
	ctx := context.Background()
	if p := store.ListProducts()[0]; p.Transactions != 500 || p.UnitValue != 1.2 {
		t.Fatalf("never linked product should report its baseline: %+v", p)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.AttachProduct(clientID, a, 50000, 2)
		return nil
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	// Saved totals of a linked product must not come back as a baseline.
	store.ImportState(store.ExportState())
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.ReplaceClientProducts(clientID, []domain.ProductLine{{ProductID: b, Transactions: 4, UnitValue: 1}})
		return nil
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	products := store.ListProducts()
	if products[0].Transactions != 0 || products[0].UnitValue != 0 || products[0].Revenue() != 0 {
		t.Fatalf("detached product kept phantom totals: %+v", products[0])
	}
	if products[1].Transactions != 4 {
		t.Fatalf("linked product totals should come from pairings: %+v", products[1])
	}
	assertMirrored(t, store)
}

func TestUpdatesKeepGeneratedFields(t *testing.T) {
	store := NewStore(nil)
	clientID, a, _ := seed(t, store)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.AttachProduct(clientID, a, 10, 4)
		if _, err := tx.UpdateClient(clientID, func(c *domain.Client) error {
			c.Name = "Acme"
			c.Type = domain.ClientTypeFintech
			c.Transactions = 999999
			return nil
		}); err != nil {
			return err
		}
		_, err := tx.UpdateProduct(a, func(p *domain.Product) error {
			p.MarketGrowth = 12
			p.Transactions = 1
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	c := store.ListClients()[0]
	if c.Name != "Acme" || c.Type != domain.ClientTypeFintech || c.Transactions != 10 {
		t.Fatalf("unexpected client %+v", c)
	}
	p := store.ListProducts()[0]
	if p.MarketGrowth != 12 || p.Transactions != 10 || p.Clients[0].Name != "Acme" {
		t.Fatalf("unexpected product %+v", p)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpdateClient(404, func(*domain.Client) error { return nil }); err == nil {
			t.Fatalf("expected missing client error")
		}
		if _, err := tx.UpdateProduct(a, func(*domain.Product) error { return fmt.Errorf("nope") }); err == nil {
			t.Fatalf("expected mutator error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestStrategiesKeepOrderAndIDs(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	var firstID string
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		first, err := tx.CreateStrategy(domain.Strategy{Name: "one"})
		if err != nil {
			return err
		}
		if first.ID == "" {
			t.Fatalf("expected generated id")
		}
		firstID = first.ID
		if _, err := tx.CreateStrategy(domain.Strategy{Name: "one"}); err != nil {
			return err
		}
		if _, err := tx.CreateStrategy(domain.Strategy{ID: firstID}); err == nil {
			t.Fatalf("expected duplicate id error")
		}
		_, err = tx.UpdateStrategy(firstID, func(s *domain.Strategy) error {
			s.Active = true
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("strategies: %v", err)
	}
	got := store.ListStrategies()
	if len(got) != 2 || got[0].ID != firstID || !got[0].Active || got[1].Active {
		t.Fatalf("unexpected strategies %+v", got)
	}
}

func TestSelectionsAreReplacedWholesale(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	for _, avg := range []float64{4, 2} {
		avg := avg
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			tx.ReplaceSelections(domain.FrameworkPESTEL, []domain.ScoreSelection{{Tag: "political", Average: avg}})
			return nil
		}); err != nil {
			t.Fatalf("replace: %v", err)
		}
	}
	snap := store.ExportState()
	if len(snap.PestelSelections) != 1 || snap.PestelSelections[0].Average != 2 {
		t.Fatalf("expected only the last submission, got %+v", snap.PestelSelections)
	}
	if len(snap.PorterSelections) != 0 {
		t.Fatalf("porter selections must be untouched")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := NewStore(nil)
	clientID, a, b := seed(t, store)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.AttachProduct(clientID, b, 3, 2)
		tx.AttachProduct(clientID, a, 7, 1)
		tx.SetCurrentSection("estrategias")
		tx.SetBudget(domain.Budget{Revenue: 1})
		target := a
		_, err := tx.CreateStrategy(domain.Strategy{Name: "s", TargetProductID: &target})
		return err
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	snapshot := store.ExportState()
	store.ImportState(domain.Snapshot{})
	if len(store.ListClients()) != 0 || store.ExportState().CurrentSection != domain.SectionClients {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	again := store.ExportState()
	if got := again.Clients[0].Products; len(got) != 2 || got[0].ProductID != b || got[1].ProductID != a {
		t.Fatalf("client order lost: %+v", got)
	}
	if again.CurrentSection != "estrategias" || again.Budget.Revenue != 1 || *again.Strategies[0].TargetProductID != a {
		t.Fatalf("unexpected restored snapshot %+v", again)
	}
	assertMirrored(t, store)
}

func TestSaveLoadInProcess(t *testing.T) {
	store := NewStore(nil, WithStateKey("custom"))
	if store.StateKey() != "custom" {
		t.Fatalf("unexpected key %q", store.StateKey())
	}
	ctx := context.Background()
	if ok, err := store.Load(ctx); ok || err != nil {
		t.Fatalf("expected nothing saved, got %v %v", ok, err)
	}
	seed(t, store)
	if err := store.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.ImportState(domain.Snapshot{})
	ok, err := store.Load(ctx)
	if !ok || err != nil || len(store.ListProducts()) != 2 {
		t.Fatalf("expected saved state restored, got %v %v", ok, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCommitHookRunsBeforeSwap(t *testing.T) {
	var seen []int
	store := NewStore(nil, WithCommitHook(func(_ context.Context, s domain.Snapshot) error {
		seen = append(seen, len(s.Products))
		if len(s.Products) > 1 {
			return errors.New("disk full")
		}
		return nil
	}))
	ctx := context.Background()
	create := func() error {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.CreateProduct(domain.Product{Name: "p"})
			return err
		})
		return err
	}
	if err := create(); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := create(); err == nil {
		t.Fatalf("expected hook failure")
	}
	if len(store.ListProducts()) != 1 {
		t.Fatalf("hook failure must leave state unchanged")
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("hook should see candidate states, got %v", seen)
	}
	store.SetCommitHook(nil)
	if err := create(); err != nil {
		t.Fatalf("create without hook: %v", err)
	}
}

func TestStoreRuleViolation(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateClient(domain.Client{Name: "Fail"})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListClients()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestViewReturnsClones(t *testing.T) {
	store := NewStore(nil)
	seed(t, store)
	err := store.View(context.Background(), func(v domain.TransactionView) error {
		products := v.ListProducts()
		products[0].Name = "mutated"
		if v.FinancialData().NPS != 50 || v.Budget().Revenue != 1000000 {
			t.Fatalf("unexpected defaults")
		}
		if v.Selections("unknown") != nil {
			t.Fatalf("expected nil selections for unknown framework")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if store.ListProducts()[0].Name != "Cards" {
		t.Fatalf("view mutation leaked into store")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(ctx context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	res.Merge(domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock}}})
	return res, nil
}

func TestAutosaveKeepsLastCommit(t *testing.T) {
	store := NewStore(nil, WithAutosave(true))
	if !store.Autosave() {
		t.Fatalf("expected autosave enabled")
	}
	seed(t, store)
	store.ImportState(domain.Snapshot{})
	ok, err := store.Load(context.Background())
	if !ok || err != nil || len(store.ListClients()) != 1 {
		t.Fatalf("expected autosaved state, got %v %v", ok, err)
	}
}
