// Package schedulertest provides a manual clock and a recording sink for
// driving the scheduler deterministically.
package schedulertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/draknorr/publisheriq-sub000/internal/codec"
	"github.com/draknorr/publisheriq-sub000/internal/scheduler"
)

// FakeClock fires timers only when Advance moves past their deadline.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewFakeClock creates a clock at time zero.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// AfterFunc arms f to run once the clock has advanced by d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) scheduler.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock and runs due timers in deadline order, synchronously.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	live := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case t.at <= c.now:
			t.fired = true
			due = append(due, t)
		default:
			live = append(live, t)
		}
	}
	c.timers = live
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.f()
	}
}

// Tick runs timers armed with a zero delay.
func (c *FakeClock) Tick() {
	c.Advance(0)
}

// Armed returns the number of timers waiting to fire.
func (c *FakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// RecordingSink stores every applied patch.
type RecordingSink struct {
	mu      sync.Mutex
	patches []codec.Patch
	err     error
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Apply records p.
func (s *RecordingSink) Apply(_ context.Context, p codec.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.patches = append(s.patches, p.Clone())
	return nil
}

// SetError makes subsequent Apply calls fail.
func (s *RecordingSink) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Patches returns the recorded patches.
func (s *RecordingSink) Patches() []codec.Patch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]codec.Patch(nil), s.patches...)
}

// Reset clears recorded patches.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patches = nil
}
