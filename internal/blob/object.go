package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// Overwrite replaces key with data. Put is create-only, so any previous
// object is deleted first.
func Overwrite(ctx context.Context, store Store, key string, data []byte, opts PutOptions) (Info, error) {
	if _, err := store.Delete(ctx, key); err != nil {
		return Info{}, fmt.Errorf("overwrite %s: %w", key, err)
	}
	return store.Put(ctx, key, bytes.NewReader(data), opts)
}

// ReadAll fetches the whole content of key.
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether key is present.
func Exists(ctx context.Context, store Store, key string) (bool, error) {
	_, err := store.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}
