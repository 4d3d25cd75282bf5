// Package report turns engine results into ready-to-render tables and
// exports them as CSV or JSON. Money is rounded to cents with decimal
// arithmetic so totals in a table add up the way they are displayed.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"stratsim/internal/finance"
	"stratsim/internal/projection"
	"stratsim/pkg/domain"
)

// Table is a titled grid of display strings.
type Table struct {
	Name    string     `json:"name"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Money rounds v to cents.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func money(v float64) string { return Money(v).StringFixed(2) }

func percent(v float64) string { return decimal.NewFromFloat(v).StringFixed(1) + "%" }

// MonthlyPnL renders the twelve-month projection with a totals row.
func MonthlyPnL(months []projection.Month) Table {
	t := Table{Name: "pnl-monthly", Title: "Monthly P&L", Columns: []string{"month", "income", "cost", "result", "band"}}
	income, cost, result := decimal.Zero, decimal.Zero, decimal.Zero
	for _, m := range months {
		t.Rows = append(t.Rows, []string{fmt.Sprint(m.Month), money(m.Income), money(m.Cost), money(m.Result), string(m.Band)})
		income = income.Add(Money(m.Income))
		cost = cost.Add(Money(m.Cost))
		result = result.Add(Money(m.Result))
	}
	t.Rows = append(t.Rows, []string{"total", income.StringFixed(2), cost.StringFixed(2), result.StringFixed(2), ""})
	return t
}

// QuarterlyPnL renders the four quarterly net results.
func QuarterlyPnL(quarters [4]float64) Table {
	t := Table{Name: "pnl-quarterly", Title: "Quarterly P&L", Columns: []string{"quarter", "result"}}
	for i, q := range quarters {
		t.Rows = append(t.Rows, []string{fmt.Sprintf("Q%d", i+1), money(q)})
	}
	return t
}

// AnnualPnL renders the year totals.
func AnnualPnL(totals projection.Totals) Table {
	return Table{
		Name:    "pnl-annual",
		Title:   "Annual P&L",
		Columns: []string{"income", "cost", "result"},
		Rows:    [][]string{{money(totals.Income), money(totals.Cost), money(totals.Result)}},
	}
}

// BudgetComparison renders actual against budget for the P&L lines.
func BudgetComparison(pairs []projection.BudgetPair) Table {
	t := Table{Name: "budget", Title: "Budget comparison", Columns: []string{"metric", "actual", "budget"}}
	for _, p := range pairs {
		t.Rows = append(t.Rows, []string{p.Metric, money(p.Actual), money(p.Budget)})
	}
	return t
}

// Deltas renders every metric with its deviation from budget.
func Deltas(deltas []finance.Delta) Table {
	t := Table{Name: "budget-deltas", Title: "Deviation from budget", Columns: []string{"metric", "actual", "budget", "diff", "percent"}}
	for _, d := range deltas {
		t.Rows = append(t.Rows, []string{d.Metric, money(d.Actual), money(d.Budget), money(d.Diff), percent(d.Percent)})
	}
	return t
}

// Quadrants renders the product board, one row per product, in quadrant order.
func Quadrants(board map[domain.Quadrant][]domain.Product) Table {
	t := Table{Name: "quadrants", Title: "Portfolio quadrants", Columns: []string{"quadrant", "product", "market_growth", "market_share"}}
	for _, q := range domain.Quadrants {
		products := append([]domain.Product(nil), board[q]...)
		sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
		for _, p := range products {
			t.Rows = append(t.Rows, []string{string(q), p.Name, percent(p.MarketGrowth), percent(p.MarketShare)})
		}
	}
	return t
}

// Clients renders each client with its product count and totals.
func Clients(clients []domain.Client) Table {
	t := Table{Name: "clients", Title: "Clients", Columns: []string{"id", "name", "type", "products", "transactions", "revenue"}}
	for _, c := range clients {
		t.Rows = append(t.Rows, []string{fmt.Sprint(c.ID), c.Name, string(c.Type), fmt.Sprint(len(c.Products)), fmt.Sprint(c.Transactions), money(c.Revenue)})
	}
	return t
}

// Strategies renders every strategy with its impact figures.
func Strategies(strategies []domain.Strategy) Table {
	t := Table{Name: "strategies", Title: "Strategies", Columns: []string{"name", "type", "investment", "duration", "revenue_impact", "cost_impact", "active"}}
	for _, s := range strategies {
		t.Rows = append(t.Rows, []string{s.Name, string(s.Type), money(s.Investment), fmt.Sprint(s.DurationMonths), percent(s.RevenueImpact), percent(s.CostImpact), fmt.Sprint(s.Active)})
	}
	return t
}
