// Package prefs keeps small per-user UI preferences: which filter sections
// are expanded and which tags were used recently.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// ErrNotFound is returned by Store.Get for missing keys.
var ErrNotFound = errors.New("preference not found")

// Store is a byte-oriented key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// PebbleOptions configures a PebbleStore.
type PebbleOptions struct {
	// Path is the database directory.
	Path string

	// FS overrides the filesystem. Tests pass vfs.NewMem().
	FS vfs.FS

	Logger *slog.Logger
}

// PebbleStore is a Store backed by PebbleDB.
type PebbleStore struct {
	db     *pebble.DB
	logger *slog.Logger
}

// OpenPebble opens (or creates) the store at opts.Path.
func OpenPebble(opts PebbleOptions) (*PebbleStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("prefs path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "prefs")

	dbOpts := &pebble.Options{}
	if opts.FS != nil {
		dbOpts.FS = opts.FS
	} else if err := os.MkdirAll(opts.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create prefs directory: %w", err)
	}

	db, err := pebble.Open(opts.Path, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}
	logger.Info("Preferences store opened", "path", opts.Path)
	return &PebbleStore{db: db, logger: logger}, nil
}

func (s *PebbleStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (s *PebbleStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close preferences store", "error", err)
		return err
	}
	return nil
}
