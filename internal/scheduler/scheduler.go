// Package scheduler coalesces persisted-state writes: immediate patches
// flush on the next tick, debounced patches after a quiet period.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/draknorr/publisheriq-sub000/internal/codec"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// ImmediateTarget is the target used by Immediate and Reset.
const ImmediateTarget = "immediate"

// Sink receives coalesced patches.
type Sink interface {
	Apply(ctx context.Context, p codec.Patch) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p codec.Patch) error

// Apply calls f.
func (f SinkFunc) Apply(ctx context.Context, p codec.Patch) error { return f(ctx, p) }

// Timer is the subset of *time.Timer the scheduler uses.
type Timer interface {
	Stop() bool
}

// Clock arms timers. Tests inject a fake one.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Options configures a Scheduler.
type Options struct {
	Clock  Clock
	Logger *slog.Logger

	// OnFlush is called after every sink write with the written keys.
	OnFlush func(target string, keys []string, err error)
}

type entry struct {
	patch codec.Patch
	timer Timer
	gen   uint64
}

// Scheduler batches patches per target.
type Scheduler struct {
	sink    Sink
	clock   Clock
	logger  *slog.Logger
	onFlush func(string, []string, error)

	// writeMu serializes sink writes in the order entries are taken.
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]*entry
	gen     uint64
	closed  bool
}

// New creates a scheduler writing to sink.
func New(sink Sink, opts Options) *Scheduler {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sink:    sink,
		clock:   clock,
		logger:  logger.With("component", "scheduler"),
		onFlush: opts.OnFlush,
		pending: make(map[string]*entry),
	}
}

// Immediate schedules p for the next tick.
func (s *Scheduler) Immediate(p codec.Patch) error {
	return s.Debounce(ImmediateTarget, 0, p)
}

// Debounce merges p into the pending patch of target and re-arms its timer.
// Keys of p are withdrawn from every other pending target, so an older
// pending value never overwrites a newer one.
func (s *Scheduler) Debounce(target string, delay time.Duration, p codec.Patch) error {
	if len(p) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("scheduler: %w", model.ErrClosed)
	}

	for other, e := range s.pending {
		if other == target {
			continue
		}
		for k := range p {
			delete(e.patch, k)
		}
		if len(e.patch) == 0 {
			e.timer.Stop()
			delete(s.pending, other)
		}
	}

	e, ok := s.pending[target]
	if ok {
		e.timer.Stop()
		e.patch.Merge(p)
	} else {
		e = &entry{patch: p.Clone()}
		s.pending[target] = e
	}
	s.gen++
	gen := s.gen
	e.gen = gen
	e.timer = s.clock.AfterFunc(delay, func() { s.fire(target, gen) })
	return nil
}

// Reset drops every pending patch and schedules p immediately.
func (s *Scheduler) Reset(p codec.Patch) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: %w", model.ErrClosed)
	}
	for target, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, target)
	}
	s.mu.Unlock()
	if len(p) == 0 {
		return nil
	}
	return s.Immediate(p)
}

// Pending returns the targets holding unwritten patches.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pending))
	for t := range s.pending {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Flush writes every pending patch now, oldest first.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	type taken struct {
		target string
		e      *entry
	}
	var all []taken
	for target, e := range s.pending {
		e.timer.Stop()
		all = append(all, taken{target, e})
		delete(s.pending, target)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].e.gen < all[j].e.gen })
	for _, t := range all {
		if err := ctx.Err(); err != nil {
			return model.WrapError(err)
		}
		if err := s.write(ctx, t.target, t.e.patch); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes pending patches and rejects further scheduling.
func (s *Scheduler) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

func (s *Scheduler) fire(target string, gen uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	e, ok := s.pending[target]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.pending, target)
	s.mu.Unlock()

	_ = s.write(context.Background(), target, e.patch)
}

func (s *Scheduler) write(ctx context.Context, target string, p codec.Patch) error {
	err := s.sink.Apply(ctx, p)
	if err != nil {
		s.logger.Error("Failed to write patch", "target", target, "keys", p.Keys(), "error", err)
	} else {
		s.logger.Debug("Patch written", "target", target, "keys", p.Keys())
	}
	if s.onFlush != nil {
		s.onFlush(target, p.Keys(), err)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s patch: %w", target, err)
	}
	return nil
}
