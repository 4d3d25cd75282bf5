package domain

import "testing"

func TestParseClientType(t *testing.T) {
	cases := map[string]ClientType{
		"bank":      ClientTypeBank,
		" Banco ":   ClientTypeBank,
		"FINTECH":   ClientTypeFintech,
		"insurance": "",
	}
	for raw, want := range cases {
		got, ok := ParseClientType(raw)
		if got != want || ok != (want != "") {
			t.Fatalf("ParseClientType(%q) = %q, %v", raw, got, ok)
		}
	}
}

func TestParseGrowthStrategy(t *testing.T) {
	if got := ParseGrowthStrategy(" Expansion "); got != GrowthExpansion {
		t.Fatalf("expected expansion, got %s", got)
	}
	if got := ParseGrowthStrategy("merger"); got != GrowthDefault {
		t.Fatalf("unknown tag should collapse to default, got %s", got)
	}
}

func TestParseStrategyType(t *testing.T) {
	if ParseStrategyType("ansoff") != StrategyGrowth || ParseStrategyType("PESTEL") != StrategyScores {
		t.Fatalf("framework labels not recognised")
	}
	if ParseStrategyType("") != StrategyManual {
		t.Fatalf("empty label should be manual")
	}
}

func TestProductRevenue(t *testing.T) {
	p := Product{Transactions: 120, UnitValue: 2.5}
	if p.Revenue() != 300 {
		t.Fatalf("expected revenue 300, got %v", p.Revenue())
	}
}

func TestFrameworkKeys(t *testing.T) {
	if len(PestelCategories) != 6 || len(PorterForces) != 5 {
		t.Fatalf("unexpected framework sizes %d/%d", len(PestelCategories), len(PorterForces))
	}
	for _, c := range PestelCategories {
		if !c.Valid() || c.Label() == string(c) {
			t.Fatalf("category %s missing label", c)
		}
	}
	for _, f := range PorterForces {
		if !f.Valid() || f.Label() == string(f) {
			t.Fatalf("force %s missing label", f)
		}
	}
	if PestelCategory("cultural").Valid() || PorterForce("regulators").Valid() {
		t.Fatalf("unknown keys must be invalid")
	}
	if PorterForce("regulators").Label() != "regulators" {
		t.Fatalf("unknown force should label as itself")
	}
}

func TestDefaults(t *testing.T) {
	fd := DefaultFinancialData()
	if fd.NPS != 50 || fd.Churn != 5 || fd.Uptime != 99.5 || fd.Revenue != 0 {
		t.Fatalf("unexpected default financials %+v", fd)
	}
	if DefaultBudget().Revenue != 1000000 {
		t.Fatalf("unexpected default budget %+v", DefaultBudget())
	}
}
