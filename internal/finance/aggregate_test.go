package finance

import (
	"math"
	"testing"

	"stratsim/pkg/domain"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRecomputeRevenueAndRatios(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Transactions: 1000, UnitValue: 2},
		{ID: 2, Transactions: 500, UnitValue: 4},
	}
	fd := Recompute(products, nil)
	if !almost(fd.Revenue, 4000) {
		t.Fatalf("revenue: got %v", fd.Revenue)
	}
	if !almost(fd.OpCosts, 1200) || !almost(fd.GenExpenses, 800) {
		t.Fatalf("costs: got %v %v", fd.OpCosts, fd.GenExpenses)
	}
	if !almost(fd.EBITDA, 2000) {
		t.Fatalf("ebitda: got %v", fd.EBITDA)
	}
	if !almost(fd.ROI, 100) {
		t.Fatalf("roi: got %v", fd.ROI)
	}
	if fd.NPS != 50 || fd.Churn != 5 || fd.Uptime != 99.5 {
		t.Fatalf("baselines: got %+v", fd)
	}
}

func TestRecomputeZeroRevenueHasZeroROI(t *testing.T) {
	fd := Recompute(nil, nil)
	if fd.ROI != 0 || math.IsNaN(fd.ROI) || math.IsInf(fd.ROI, 0) {
		t.Fatalf("expected roi 0, got %v", fd.ROI)
	}
	if ROI(0, 0, 0) != 0 {
		t.Fatalf("expected ROI(0,0,0) = 0")
	}
}

func TestRecomputeStrategyAdjustments(t *testing.T) {
	strategies := []domain.Strategy{
		{RevenueImpact: 20, Active: true},
		{RevenueImpact: 40, Active: true},
		{RevenueImpact: 1000, Active: false},
	}
	fd := Recompute(nil, strategies)
	if !almost(fd.NPS, 56) {
		t.Fatalf("nps: got %v", fd.NPS)
	}
	if !almost(fd.Churn, 2) {
		t.Fatalf("churn: got %v", fd.Churn)
	}
}

func TestRecomputeClampsNPSAndChurn(t *testing.T) {
	up := Recompute(nil, []domain.Strategy{{RevenueImpact: 900, Active: true}})
	if up.NPS != 100 || up.Churn != 0 {
		t.Fatalf("expected nps 100 churn 0, got %v %v", up.NPS, up.Churn)
	}
	down := Recompute(nil, []domain.Strategy{{RevenueImpact: -900, Active: true}})
	if down.NPS != 0 {
		t.Fatalf("expected nps 0, got %v", down.NPS)
	}
	if !almost(down.Churn, 50) {
		t.Fatalf("expected churn 50, got %v", down.Churn)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	products := []domain.Product{{Transactions: 12345, UnitValue: 1.37}, {Transactions: 999, UnitValue: 0.51}}
	strategies := []domain.Strategy{{RevenueImpact: 13, Active: true}}
	first := Recompute(products, strategies)
	second := Recompute(products, strategies)
	if first != second {
		t.Fatalf("recompute not idempotent: %+v vs %+v", first, second)
	}
}

func TestDeltas(t *testing.T) {
	actual := domain.FinancialData{Revenue: 1100000, OpCosts: 330000, GenExpenses: 220000, EBITDA: 550000}
	budget := domain.DefaultBudget()
	deltas := Deltas(actual, budget)
	if len(deltas) != 8 {
		t.Fatalf("expected 8 deltas, got %d", len(deltas))
	}
	if deltas[0].Metric != "revenue" || !almost(deltas[0].Diff, 100000) || !almost(deltas[0].Percent, 10) {
		t.Fatalf("unexpected revenue delta %+v", deltas[0])
	}
	zero := Deltas(domain.FinancialData{Revenue: 5}, domain.Budget{})
	if zero[0].Percent != 0 {
		t.Fatalf("expected zero percent for zero budget")
	}
}
