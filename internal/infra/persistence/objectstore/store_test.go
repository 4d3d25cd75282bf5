package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"stratsim/internal/blob"
	"stratsim/internal/infra/persistence/memory"
	"stratsim/pkg/domain"
)

func addProduct(ctx context.Context, store domain.PersistentStore, name string) error {
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateProduct(domain.Product{Name: name, Unit: "tx", Transactions: 100, UnitValue: 1.5})
		return err
	})
	return err
}

// failingPuts lets reads through and rejects writes.
type failingPuts struct {
	blob.Store
}

func (failingPuts) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("bucket is read-only")
}

func TestSaveAndLoadAcrossBackends(t *testing.T) {
	for name, blobs := range map[string]blob.Store{"memory": blob.NewMemory(), "s3": blob.NewMockS3ForTests()} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewStore(blobs, "", domain.NewRulesEngine(), memory.WithStateKey("run-1"))
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			if store.Key() != "state/run-1.json" {
				t.Fatalf("unexpected key %s", store.Key())
			}
			if ok, err := store.Load(ctx); ok || err != nil {
				t.Fatalf("expected nothing saved yet: %v %v", ok, err)
			}
			if err := addProduct(ctx, store, "Cards"); err != nil {
				t.Fatalf("add: %v", err)
			}
			if err := store.Save(ctx); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := store.Save(ctx); err != nil {
				t.Fatalf("second save must overwrite: %v", err)
			}

			reopened, _ := NewStore(blobs, "", domain.NewRulesEngine(), memory.WithStateKey("run-1"))
			ok, err := reopened.Load(ctx)
			if err != nil || !ok {
				t.Fatalf("load: %v %v", ok, err)
			}
			products := reopened.ListProducts()
			if len(products) != 1 || products[0].Name != "Cards" || products[0].Transactions != 100 {
				t.Fatalf("unexpected products %+v", products)
			}
		})
	}
}

func TestAutosaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	mem := blob.NewMemory()
	store, _ := NewStore(mem, "snapshots", domain.NewRulesEngine(), memory.WithAutosave(true))
	if err := addProduct(ctx, store, "Cards"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ok, _ := blob.Exists(ctx, mem, store.Key()); !ok {
		t.Fatalf("autosave should write %s", store.Key())
	}

	readOnly, _ := NewStore(failingPuts{Store: blob.NewMemory()}, "", domain.NewRulesEngine(), memory.WithAutosave(true))
	if err := addProduct(ctx, readOnly, "Cards"); err == nil {
		t.Fatalf("expected autosave error")
	}
	if len(readOnly.ListProducts()) != 0 {
		t.Fatalf("failed autosave must not commit")
	}
}

func TestLoadRejectsMalformedDocument(t *testing.T) {
	ctx := context.Background()
	mem := blob.NewMemory()
	store, _ := NewStore(mem, "", domain.NewRulesEngine())
	if err := addProduct(ctx, store, "Live"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := blob.Overwrite(ctx, mem, store.Key(), []byte("{oops"), blob.PutOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, err := store.Load(ctx); ok || err == nil {
		t.Fatalf("expected decode error, got %v %v", ok, err)
	}
	if store.ListProducts()[0].Name != "Live" {
		t.Fatalf("failed load must keep state")
	}
}

func TestNewStoreRequiresBlobs(t *testing.T) {
	if _, err := NewStore(nil, "", nil); err == nil {
		t.Fatalf("expected error without blob store")
	}
}
