// Package objectstore persists simulator snapshots as one JSON document per
// state key in a blob store (filesystem, S3 or memory).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"stratsim/internal/blob"
	"stratsim/internal/infra/persistence/memory"
	"stratsim/internal/infra/persistence/snapshot"
	"stratsim/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultPrefix = "state"
	contentType   = "application/json"
)

// Store keeps state in memory and writes it to <prefix>/<state key>.json.
type Store struct {
	*memory.Store
	blobs  blob.Store
	prefix string
	mu     sync.Mutex
}

// NewStore wraps blobs. An empty prefix defaults to "state". Saved state is
// not read until Load is called.
func NewStore(blobs blob.Store, prefix string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("objectstore: blob store required")
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	s := &Store{Store: memory.NewStore(engine, opts...), blobs: blobs, prefix: prefix}
	if s.Autosave() {
		s.SetCommitHook(s.persist)
	}
	return s, nil
}

// Key returns the blob key the snapshot is written to.
func (s *Store) Key() string { return path.Join(s.prefix, s.StateKey()+".json") }

func (s *Store) persist(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return err
	}
	opts := blob.PutOptions{ContentType: contentType, Metadata: map[string]string{"state-key": s.StateKey()}}
	if _, err := blob.Overwrite(ctx, s.blobs, s.Key(), data, opts); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Save writes the current state.
func (s *Store) Save(ctx context.Context) error {
	if err := s.persist(ctx, s.ExportState()); err != nil {
		return fmt.Errorf("objectstore save: %w", err)
	}
	return nil
}

// Load replaces the in-memory state with the saved document. A missing
// document reports false; a malformed one fails and leaves state untouched.
func (s *Store) Load(ctx context.Context) (bool, error) {
	data, err := blob.ReadAll(ctx, s.blobs, s.Key())
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("objectstore load: %w", err)
	}
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		return false, err
	}
	s.ImportState(snap)
	return true, nil
}

// Blobs exposes the underlying blob store.
func (s *Store) Blobs() blob.Store { return s.blobs }
