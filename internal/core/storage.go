package core

import (
	"fmt"

	"stratsim/internal/blob"
	"stratsim/internal/infra/persistence/memory"
	"stratsim/internal/infra/persistence/objectstore"
	"stratsim/internal/infra/persistence/postgres"
	"stratsim/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-process only
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // JSON document in the blob store
)

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver      StorageDriver `yaml:"driver"`
	SQLitePath  string        `yaml:"sqlite_path"`
	PostgresDSN string        `yaml:"postgres_dsn"`
	BlobPrefix  string        `yaml:"blob_prefix"`
	StateKey    string        `yaml:"state_key"`
	Autosave    bool          `yaml:"autosave"`
}

// OpenPersistentStore builds the backend described by cfg. An empty driver
// means memory. The blob driver writes through blobs, which must be set.
func OpenPersistentStore(cfg StorageConfig, engine *RulesEngine, blobs blob.Store) (PersistentStore, error) {
	opts := []memory.Option{memory.WithStateKey(cfg.StateKey), memory.WithAutosave(cfg.Autosave)}
	switch cfg.Driver {
	case "", StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine, opts...)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine, opts...)
	case StorageBlob:
		if blobs == nil {
			return nil, fmt.Errorf("storage driver %s requires a blob store", cfg.Driver)
		}
		return objectstore.NewStore(blobs, cfg.BlobPrefix, engine, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
