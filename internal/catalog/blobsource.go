package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"stratsim/internal/blob"
	"stratsim/pkg/domain"
)

// Catalog file names under the source prefix.
const (
	ProductsFile   = "productos.json"
	ClientsFile    = "clientes.json"
	StrategiesFile = "estrategias.json"
)

// BlobSource reads the three catalog files from a blob store. All three must
// be present and well formed; any failure fails the whole load.
type BlobSource struct {
	store  blob.Store
	prefix string
}

// NewBlobSource reads catalog files stored under prefix.
func NewBlobSource(store blob.Store, prefix string) *BlobSource {
	return &BlobSource{store: store, prefix: prefix}
}

func (s *BlobSource) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Load fetches and decodes the catalog.
func (s *BlobSource) Load(ctx context.Context) (Data, error) {
	var (
		products   []productRecord
		clients    []clientRecord
		strategies []strategyRecord
	)
	for name, target := range map[string]any{ProductsFile: &products, ClientsFile: &clients, StrategiesFile: &strategies} {
		raw, err := blob.ReadAll(ctx, s.store, s.key(name))
		if err != nil {
			return Data{}, fmt.Errorf("catalog %s: %w", name, err)
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return Data{}, fmt.Errorf("catalog %s: decode: %w", name, err)
		}
	}
	data := Data{
		Products:   make([]domain.Product, 0, len(products)),
		Clients:    make([]domain.Client, 0, len(clients)),
		Strategies: make([]domain.Strategy, 0, len(strategies)),
	}
	for _, r := range products {
		data.Products = append(data.Products, r.toDomain())
	}
	for _, r := range clients {
		data.Clients = append(data.Clients, r.toDomain())
	}
	for _, r := range strategies {
		data.Strategies = append(data.Strategies, r.toDomain())
	}
	return data, nil
}
