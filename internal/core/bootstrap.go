package core

import (
	"context"
	"fmt"

	"stratsim/internal/catalog"
	"stratsim/internal/finance"
	"stratsim/internal/projection"
	"stratsim/internal/report"
	"stratsim/internal/strategy"
)

// Bootstrap restores saved state when the store holds one. Otherwise it
// fills the empty store with the catalog data set, falling back to
// catalog.Minimal when source fails. A nil seeder keeps the catalog links
// as loaded; otherwise links and market figures are seeded whenever the
// catalog carries no links. It reports whether saved state was loaded.
func (s *Service) Bootstrap(ctx context.Context, source catalog.Source, seeder *catalog.Seeder) (bool, error) {
	restored, err := s.LoadState(ctx)
	if err != nil || restored {
		return restored, err
	}
	data, err := loadCatalog(ctx, source)
	if err != nil {
		s.logger.Warn("catalog unavailable, using minimal data set", "error", err)
		data = catalog.Minimal()
	}
	if seeder != nil && len(data.Links) == 0 {
		data = seeder.Seed(data)
	}
	if _, err := s.run(ctx, "bootstrap", "", func(tx Transaction) (string, error) {
		return "", importCatalog(tx, data)
	}); err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	s.logger.Info("catalog loaded",
		"products", len(data.Products),
		"clients", len(data.Clients),
		"strategies", len(data.Strategies),
		"links", len(data.Links))
	return false, nil
}

func loadCatalog(ctx context.Context, source catalog.Source) (catalog.Data, error) {
	if source == nil {
		return catalog.Data{}, fmt.Errorf("no catalog source")
	}
	data, err := source.Load(ctx)
	if err != nil {
		return catalog.Data{}, err
	}
	if len(data.Products) == 0 || len(data.Clients) == 0 {
		return catalog.Data{}, fmt.Errorf("catalog is empty")
	}
	return data, nil
}

func importCatalog(tx Transaction, data catalog.Data) error {
	for _, p := range data.Products {
		p.Clients = nil
		if _, err := tx.CreateProduct(p); err != nil {
			return fmt.Errorf("product %d: %w", p.ID, err)
		}
	}
	for _, c := range data.Clients {
		c.Products = nil
		if _, err := tx.CreateClient(c); err != nil {
			return fmt.Errorf("client %d: %w", c.ID, err)
		}
	}
	for _, st := range data.Strategies {
		if _, err := tx.CreateStrategy(st); err != nil {
			return fmt.Errorf("strategy %s: %w", st.ID, err)
		}
	}
	// Links naming unknown ids or non-positive values are skipped.
	for _, l := range data.Links {
		tx.AttachProduct(l.ClientID, l.ProductID, l.Transactions, l.UnitValue)
	}
	return nil
}

// ExportReports renders every report table from the current state and
// writes each through exporter in format.
func (s *Service) ExportReports(ctx context.Context, exporter *report.Exporter, format report.Format) ([]string, error) {
	tables, err := s.ReportTables(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(tables))
	for _, t := range tables {
		started := s.clock.Now()
		info, err := exporter.Export(ctx, t, format)
		s.metrics.Observe(ctx, "export_report", err == nil, s.clock.Now().Sub(started))
		if err != nil {
			s.logger.Error("report export failed", "table", t.Name, "error", err)
			return keys, err
		}
		keys = append(keys, info.Key)
	}
	s.logger.Info("reports exported", "count", len(keys), "format", string(format))
	return keys, nil
}

// ReportTables renders the report tables from one consistent view.
func (s *Service) ReportTables(ctx context.Context) ([]report.Table, error) {
	var tables []report.Table
	err := s.view(ctx, func(v TransactionView) error {
		strategies := v.ListStrategies()
		products := v.ListProducts()
		tables = []report.Table{
			report.MonthlyPnL(projection.Monthly(strategies)),
			report.QuarterlyPnL(projection.Quarterly(strategies)),
			report.AnnualPnL(projection.Annual(strategies)),
			report.BudgetComparison(projection.Budget(v.FinancialData(), v.Budget())),
			report.Deltas(finance.Deltas(v.FinancialData(), v.Budget())),
			report.Quadrants(strategy.Board(products)),
			report.Clients(v.ListClients()),
			report.Strategies(strategies),
		}
		return nil
	})
	return tables, err
}
