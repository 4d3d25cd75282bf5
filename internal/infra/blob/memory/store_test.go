package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"stratsim/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	meta := map[string]string{"section": "pnl"}
	info, err := store.Put(ctx, "reports/pnl.csv", bytes.NewReader([]byte("month,income\n")), core.PutOptions{ContentType: "text/csv", Metadata: meta})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 13 || info.ETag == "" || info.ContentType != "text/csv" {
		t.Fatalf("unexpected info %+v", info)
	}
	meta["section"] = "mutated"
	head, err := store.Head(ctx, "reports/pnl.csv")
	if err != nil || head.Metadata["section"] != "pnl" {
		t.Fatalf("metadata must be copied on put: %+v %v", head, err)
	}
	if _, err := store.Put(ctx, "reports/pnl.csv", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := store.Get(ctx, "reports/pnl.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "month,income\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if _, err := store.Put(ctx, "catalog/clientes.json", bytes.NewReader([]byte("[]")), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "reports/")
	if err != nil || len(list) != 1 || list[0].Key != "reports/pnl.csv" {
		t.Fatalf("unexpected prefix list %+v %v", list, err)
	}
	all, _ := store.List(ctx, "")
	if len(all) != 2 || all[0].Key != "catalog/clientes.json" {
		t.Fatalf("expected sorted list, got %+v", all)
	}
	if ok, err := store.Delete(ctx, "reports/pnl.csv"); !ok || err != nil {
		t.Fatalf("delete existing: %v %v", ok, err)
	}
	if ok, _ := store.Delete(ctx, "reports/pnl.csv"); ok {
		t.Fatalf("second delete must report false")
	}
}

func TestStoreMissingKeys(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if _, err := store.PresignURL(ctx, "missing", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported presign, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStorePutRejectsBadInput(t *testing.T) {
	store := New()
	if _, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := store.Put(context.Background(), "  ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
}
