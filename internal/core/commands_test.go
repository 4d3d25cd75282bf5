package core

import (
	"context"
	"testing"

	"stratsim/pkg/domain"
)

func TestDispatchFormFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	out, err := svc.Dispatch(ctx, Command{Kind: CommandAddProduct, Fields: map[string]string{
		FieldName: "Card Processing", FieldUnit: "transaction", FieldMarketShare: "abc",
	}})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	if out.Product.ID != 1 || out.Product.MarketShare != 0 {
		t.Fatalf("unexpected product %+v", out.Product)
	}

	out, err = svc.Dispatch(ctx, Command{Kind: CommandAddClient, Fields: map[string]string{
		FieldName: " Banco Sur ", FieldType: "banco",
	}})
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	if out.Client.Name != "Banco Sur" || out.Client.Type != domain.ClientTypeBank {
		t.Fatalf("unexpected client %+v", out.Client)
	}

	out, err = svc.Dispatch(ctx, Command{Kind: CommandReplaceClientProducts,
		Fields: map[string]string{FieldClientID: "1"},
		Lines: []FormLine{
			{ProductID: "1", Transactions: "1500", UnitValue: "1.5"},
			{ProductID: "1", Transactions: "", UnitValue: "2"},
		},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(out.Client.Products) != 1 || out.Client.Revenue != 2250 {
		t.Fatalf("unexpected client lines %+v", out.Client)
	}

	out, err = svc.Dispatch(ctx, Command{Kind: CommandAttachProduct, Fields: map[string]string{
		FieldClientID: "1", FieldProductID: "9", FieldTransactions: "10", FieldUnitValue: "1",
	}})
	if err != nil || out.Attached {
		t.Fatalf("expected unknown product skipped, got %+v %v", out, err)
	}

	out, err = svc.Dispatch(ctx, Command{Kind: CommandSetMarketPosition, Fields: map[string]string{
		FieldProductID: "1", FieldMarketGrowth: "15", FieldMarketShare: "5", FieldGrowthStrategy: "penetration",
	}})
	if err != nil || len(out.Strategies) != 1 {
		t.Fatalf("expected growth strategy, got %+v %v", out, err)
	}
	growth := out.Strategies[0]

	out, err = svc.Dispatch(ctx, Command{Kind: CommandToggleStrategy, Fields: map[string]string{
		FieldStrategyID: growth.ID, FieldActive: "on",
	}})
	if err != nil || len(out.Strategies) != 1 || !out.Strategies[0].Active {
		t.Fatalf("expected strategy activated, got %+v %v", out, err)
	}

	out, err = svc.Dispatch(ctx, Command{Kind: CommandAddStrategy, Fields: map[string]string{
		FieldName: "Manual", FieldTargetProductID: "", FieldInvestment: "1000", FieldDuration: "4", FieldRevenueImpact: "7",
	}})
	if err != nil || len(out.Strategies) != 1 {
		t.Fatalf("add strategy: %+v %v", out, err)
	}
	if s := out.Strategies[0]; s.TargetProductID != nil || s.CostImpact != 4 || s.Active {
		t.Fatalf("unexpected manual strategy %+v", s)
	}

	out, err = svc.Dispatch(ctx, Command{Kind: CommandSubmitPestel, Scores: map[string][]string{
		"legal":   {"4", "4"},
		"unknown": {"5"},
	}})
	if err != nil || len(out.Strategies) != 1 {
		t.Fatalf("expected one pestel strategy, got %+v %v", out, err)
	}

	if _, err := svc.Dispatch(ctx, Command{Kind: CommandSubmitPorter, Scores: map[string][]string{"buyers": {"3"}}}); err != nil {
		t.Fatalf("submit porter: %v", err)
	}
	if _, err := svc.Dispatch(ctx, Command{Kind: CommandNavigate, Fields: map[string]string{FieldSection: "bcg"}}); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if section, _ := svc.CurrentSection(ctx); section != "bcg" {
		t.Fatalf("unexpected section %q", section)
	}

	if _, err := svc.Dispatch(ctx, Command{Kind: CommandSave}); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err = svc.Dispatch(ctx, Command{Kind: CommandLoad})
	if err != nil || !out.Loaded {
		t.Fatalf("load: %+v %v", out, err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Dispatch(context.Background(), Command{Kind: "explode"}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestDispatchUpdateClientDefaultsType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, _, err := svc.AddClient(ctx, Client{Name: "A", Type: domain.ClientTypeBank}); err != nil {
		t.Fatalf("add client: %v", err)
	}
	out, err := svc.Dispatch(ctx, Command{Kind: CommandUpdateClient, Fields: map[string]string{
		FieldClientID: "1", FieldName: "B", FieldType: "neobank",
	}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Client.Name != "B" || out.Client.Type != domain.ClientTypeFintech {
		t.Fatalf("unexpected client %+v", out.Client)
	}
}

func TestFieldFlag(t *testing.T) {
	f := fields{"a": "TRUE", "b": "1", "c": "off", "d": ""}
	if !f.flag("a") || !f.flag("b") || f.flag("c") || f.flag("d") || f.flag("missing") {
		t.Fatalf("unexpected flag parsing")
	}
}

func TestDispatchAddProductSkipsBlankName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	out, err := svc.Dispatch(ctx, Command{Kind: CommandAddProduct, Fields: map[string]string{
		FieldName: "   ", FieldTransactions: "100", FieldUnitValue: "2",
	}})
	if err != nil {
		t.Fatalf("blank name should be skipped, got %v", err)
	}
	if out.Product.ID != 0 {
		t.Fatalf("expected no product, got %+v", out.Product)
	}
	if products, _ := svc.Products(ctx); len(products) != 0 {
		t.Fatalf("expected no product created, got %+v", products)
	}
}
