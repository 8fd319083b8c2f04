package session

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/draknorr/publisheriq-sub000/internal/codec"
)

// Location is where the persisted representation lives, typically the query
// string of the current URL.
type Location interface {
	Read(ctx context.Context) (string, error)
	Apply(ctx context.Context, p codec.Patch) error
}

// MemoryLocation keeps the persisted representation in memory. Keys it does
// not own are preserved across patches.
type MemoryLocation struct {
	mu     sync.Mutex
	vals   url.Values
	writes int
}

// NewMemoryLocation starts from text, with or without a leading "?".
func NewMemoryLocation(text string) *MemoryLocation {
	vals, _ := url.ParseQuery(strings.TrimPrefix(text, "?"))
	if vals == nil {
		vals = url.Values{}
	}
	return &MemoryLocation{vals: vals}
}

func (l *MemoryLocation) Read(_ context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vals.Encode(), nil
}

func (l *MemoryLocation) Apply(_ context.Context, p codec.Patch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p.ApplyTo(l.vals)
	l.writes++
	return nil
}

// Writes returns how many patches were applied.
func (l *MemoryLocation) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
