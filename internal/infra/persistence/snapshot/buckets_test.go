package snapshot

import (
	"reflect"
	"testing"

	"stratsim/pkg/domain"
)

func sample() domain.Snapshot {
	target := 2
	return domain.Snapshot{
		Products: []domain.Product{{ID: 2, Name: "Cards", Clients: []domain.ProductClient{{ClientID: 1, Name: "Acme", Transactions: 4, UnitValue: 2, Revenue: 8}}, Transactions: 4, UnitValue: 2}},
		Clients:  []domain.Client{{ID: 1, Name: "Acme", Type: domain.ClientTypeBank, Products: []domain.ClientProduct{{ProductID: 2, Name: "Cards", Transactions: 4, UnitValue: 2, Revenue: 8}}, Transactions: 4, Revenue: 8}},
		Strategies: []domain.Strategy{{ID: "s-1", Name: "Grow", Type: domain.StrategyGrowth, TargetProductID: &target,
			Investment: 70000, DurationMonths: 6, RevenueImpact: 8, CostImpact: 4}},
		PestelSelections: []domain.ScoreSelection{{Tag: "political", Average: 4}},
		PorterSelections: []domain.ScoreSelection{{Tag: "buyers", Average: 3}},
		FinancialData:    domain.FinancialData{Revenue: 8, NPS: 50, Churn: 5, Uptime: 99.5},
		Budget:           domain.DefaultBudget(),
		CurrentSection:   "bcg",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := sample()
	payloads, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(payloads) != len(Buckets) {
		t.Fatalf("expected %d buckets, got %d", len(Buckets), len(payloads))
	}
	out, err := Decode(payloads)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", in, out)
	}
}

func TestDecodeFailsOnMalformedBucket(t *testing.T) {
	payloads, _ := Encode(sample())
	payloads[BucketClients] = []byte("{not json")
	if _, err := Decode(payloads); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDecodeIgnoresMissingAndUnknownBuckets(t *testing.T) {
	out, err := Decode(map[string][]byte{"legacy": []byte("[]"), BucketMeta: []byte(`{"current_section":"pl"}`)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.CurrentSection != "pl" || out.Products != nil {
		t.Fatalf("unexpected snapshot %+v", out)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	data, err := Marshal(sample())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil || !reflect.DeepEqual(out, sample()) {
		t.Fatalf("unexpected document round trip: %v", err)
	}
	if _, err := Unmarshal([]byte("nope")); err == nil {
		t.Fatalf("expected error for bad document")
	}
}
