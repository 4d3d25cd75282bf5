// Package sqlite persists simulator snapshots to a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"stratsim/internal/infra/persistence/memory"
	"stratsim/internal/infra/persistence/snapshot"
	"stratsim/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store keeps state in memory and writes it to SQLite as one JSON payload per
// bucket, keyed by the store's state key. With autosave enabled the
// candidate state of every transaction is written before it is committed.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path. Saved state is not read
// until Load is called.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = "stratsim.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		state_key TEXT NOT NULL,
		bucket TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (state_key, bucket)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine, opts...), db: db, path: path}
	if s.Autosave() {
		s.SetCommitHook(s.persist)
	}
	return s, nil
}

func (s *Store) persist(ctx context.Context, snap domain.Snapshot) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payloads, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range snapshot.Buckets {
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(state_key,bucket,payload) VALUES(?,?,?) ON CONFLICT(state_key,bucket) DO UPDATE SET payload=excluded.payload`,
			s.StateKey(), bucket, payloads[bucket]); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		retErr = fmt.Errorf("commit: %w", err)
		return retErr
	}
	return nil
}

// Save writes the current state.
func (s *Store) Save(ctx context.Context) error {
	if err := s.persist(ctx, s.ExportState()); err != nil {
		return fmt.Errorf("sqlite save: %w", err)
	}
	return nil
}

// Load replaces the in-memory state with the saved one. A malformed bucket
// fails the load and leaves the current state untouched.
func (s *Store) Load(ctx context.Context) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state WHERE state_key = ?`, s.StateKey())
	if err != nil {
		return false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return false, fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return false, nil
	}
	snap, err := snapshot.Decode(payloads)
	if err != nil {
		return false, err
	}
	s.ImportState(snap)
	return true, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
