// Package session wires the filter subsystem together for one user: it owns
// the reconcile engine, parses expressions, persists state through the
// scheduler and announces changes.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/draknorr/publisheriq-sub000/internal/codec"
	"github.com/draknorr/publisheriq-sub000/internal/config"
	"github.com/draknorr/publisheriq-sub000/internal/notify"
	"github.com/draknorr/publisheriq-sub000/internal/parser"
	"github.com/draknorr/publisheriq-sub000/internal/prefs"
	"github.com/draknorr/publisheriq-sub000/internal/query"
	"github.com/draknorr/publisheriq-sub000/internal/reconcile"
	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/scheduler"
	"github.com/draknorr/publisheriq-sub000/internal/state"
	"github.com/draknorr/publisheriq-sub000/internal/suggest"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/google/uuid"
)

// Debounce targets.
const (
	TargetSearch   = "search"
	TargetAdvanced = "advanced"
)

// Options configures a Session.
type Options struct {
	// ID identifies the session in logs and notifications. Generated when empty.
	ID string

	Registry *registry.Registry
	Location Location
	Filters  config.FiltersConfig
	Suggest  suggest.Options

	// Clock drives debounce timers. Defaults to wall-clock time.
	Clock scheduler.Clock

	// Prefs and Notifier are optional.
	Prefs    *prefs.Prefs
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

// Session is the entry point used by a filter UI.
type Session struct {
	id       string
	reg      *registry.Registry
	engine   *reconcile.Engine
	parser   *parser.Parser
	codec    *codec.Codec
	sched    *scheduler.Scheduler
	loc      Location
	prefs    *prefs.Prefs
	notifier *notify.Notifier
	filters  config.FiltersConfig
	logger   *slog.Logger

	// mu serializes mutations so each patch is computed against the state
	// the previous mutation left behind.
	mu sync.Mutex
	// scheduled is the persisted form once every scheduled patch is written.
	scheduled url.Values
	// notified is the fingerprint of the last announced state.
	notified uint64
	closed   bool

	resyncMu sync.Mutex
	resync   bool
}

// New creates a session holding the default state. Call Load to adopt the
// state persisted at the location.
func New(opts Options) (*Session, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("session: registry is required")
	}
	if opts.Location == nil {
		return nil, fmt.Errorf("session: location is required")
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	filters := opts.Filters
	filters.ApplyDefaults()
	suggestOpts := opts.Suggest
	if suggestOpts.MaxDistance == 0 && suggestOpts.MaxResults == 0 {
		suggestOpts = suggest.DefaultOptions()
	}

	s := &Session{
		id:       id,
		reg:      opts.Registry,
		engine:   reconcile.New(opts.Registry, reconcile.WithLogger(logger)),
		parser:   parser.New(opts.Registry, parser.WithSuggestOptions(suggestOpts)),
		codec:    codec.New(opts.Registry, logger),
		loc:      opts.Location,
		prefs:    opts.Prefs,
		notifier: opts.Notifier,
		filters:  filters,
		logger:   logger.With("component", "session"),
	}
	s.sched = scheduler.New(scheduler.SinkFunc(s.loc.Apply), scheduler.Options{
		Clock:   opts.Clock,
		Logger:  logger,
		OnFlush: s.onFlush,
	})
	s.scheduled = s.codec.Values(s.engine.Snapshot())
	s.notified = s.engine.Snapshot().Fingerprint()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Engine exposes the engine for subscriptions and reads.
func (s *Session) Engine() *reconcile.Engine { return s.engine }

// Snapshot returns the current canonical state.
func (s *Session) Snapshot() state.Snapshot { return s.engine.Snapshot() }

// Encoded returns the persisted form of the current state, including edits
// still waiting for their debounce timer.
func (s *Session) Encoded() string { return s.codec.Encode(s.engine.Snapshot()) }

// Query resolves the current state for a query executor.
func (s *Session) Query() model.Query { return query.Resolve(s.reg, s.engine.Snapshot()) }

// ActiveFilterCount returns the number of active filters.
func (s *Session) ActiveFilterCount() int { return s.engine.ActiveFilterCount() }

// Load reads the location, adopts its state and rewrites malformed or
// non-canonical keys.
func (s *Session) Load(ctx context.Context) error {
	text, err := s.loc.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read location: %w", err)
	}
	current, _ := url.ParseQuery(strings.TrimPrefix(text, "?"))
	if current == nil {
		current = url.Values{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Replace(s.codec.DecodeValues(current))
	next := s.codec.Values(s.engine.Snapshot())
	s.scheduled = next
	s.notified = s.engine.Snapshot().Fingerprint()
	if p := s.codec.Normalize(current, next); len(p) > 0 {
		s.logger.Info("Normalizing persisted filters", "keys", p.Keys())
		return s.sched.Immediate(p)
	}
	return nil
}

// ApplyExpression parses text and applies it. A parse failure leaves the
// state untouched and is returned as *parser.ParseError.
func (s *Session) ApplyExpression(ctx context.Context, text string) (model.ParsedFilter, error) {
	pf, err := s.parser.Parse(text)
	if err != nil {
		return model.ParsedFilter{}, err
	}

	s.mu.Lock()
	if s.closed {
		err = fmt.Errorf("session: %w", model.ErrClosed)
	} else {
		err = s.engine.ApplyParsed(pf)
	}
	if err == nil {
		err = s.commitLocked(ctx, "apply_expression", scheduler.ImmediateTarget, 0)
	}
	s.mu.Unlock()
	if err != nil {
		return model.ParsedFilter{}, err
	}

	if d := pf.Definition; pf.Variant == model.VariantContent && d.Kind == model.KindMultiSelect && len(d.Options) == 0 {
		s.recordTags(ctx, pf.Members()...)
	}
	return pf, nil
}

// ApplyPreset applies the preset id.
func (s *Session) ApplyPreset(ctx context.Context, id string) error {
	return s.immediate(ctx, "apply_preset", func() error { return s.engine.ApplyPreset(id) })
}

// TogglePreset applies id, or clears everything the preset set up when it
// is already active.
func (s *Session) TogglePreset(ctx context.Context, id string) error {
	if _, ok := s.reg.Preset(id); !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownPreset, id)
	}
	if s.engine.Snapshot().Preset() == id {
		return s.ClearAll(ctx)
	}
	return s.ApplyPreset(ctx, id)
}

// ToggleQuickFilter toggles the quick filter id.
func (s *Session) ToggleQuickFilter(ctx context.Context, id string) error {
	return s.immediate(ctx, "toggle_quick_filter", func() error { return s.engine.ToggleQuickFilter(id) })
}

// SetAdvanced sets one canonical field from an advanced filter control. The
// write is debounced.
func (s *Session) SetAdvanced(ctx context.Context, field string, v model.Value) error {
	return s.debounced(ctx, "set_advanced", TargetAdvanced, s.filters.AdvancedDebounce, func() error {
		return s.engine.SetAdvancedFilter(field, v)
	})
}

// SetMode sets the match mode of a multi-select field.
func (s *Session) SetMode(ctx context.Context, field string, mode model.SetMode) error {
	return s.debounced(ctx, "set_mode", TargetAdvanced, s.filters.AdvancedDebounce, func() error {
		return s.engine.SetMode(field, mode)
	})
}

// SetSearch updates the free-text search. Non-empty text shorter than the
// configured minimum length is ignored and reported as not applied.
func (s *Session) SetSearch(ctx context.Context, text string) (bool, error) {
	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n > 0 && n < s.filters.SearchMinLength {
		return false, nil
	}
	err := s.debounced(ctx, "set_search", TargetSearch, s.filters.SearchDebounce, func() error {
		s.engine.SetSearch(trimmed)
		return nil
	})
	return err == nil, err
}

// SetSort sets the sort field and direction.
func (s *Session) SetSort(ctx context.Context, field string, order model.SortOrder) error {
	return s.immediate(ctx, "set_sort", func() error { return s.engine.SetSort(field, order) })
}

// SetType sets the result type.
func (s *Session) SetType(ctx context.Context, t string) error {
	return s.immediate(ctx, "set_type", func() error { return s.engine.SetType(t) })
}

// ClearField removes every value of one definition.
func (s *Session) ClearField(ctx context.Context, definitionID string) error {
	return s.immediate(ctx, "clear_field", func() error { return s.engine.ClearField(definitionID) })
}

// ClearAll resets the state and supersedes every pending write.
func (s *Session) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session: %w", model.ErrClosed)
	}

	s.engine.ClearAll()
	next := s.codec.Values(s.engine.Snapshot())
	// Pending patches are dropped, so the reset must restate every owned key.
	p := s.fullPatch(next)
	s.scheduled = next
	s.setResync(false)
	if err := s.sched.Reset(p); err != nil {
		return err
	}
	s.announceLocked(ctx, "clear_all")
	return nil
}

// Flush writes every pending patch now.
func (s *Session) Flush(ctx context.Context) error {
	return s.sched.Flush(ctx)
}

// Close flushes pending writes and stops accepting mutations.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.sched.Close(ctx)
}

// RecentTags returns recently used tags, most recent first.
func (s *Session) RecentTags(ctx context.Context) ([]string, error) {
	if s.prefs == nil {
		return nil, nil
	}
	return s.prefs.RecentTags(ctx)
}

// SectionExpanded reports whether a filter section is expanded.
func (s *Session) SectionExpanded(ctx context.Context, section string) (bool, error) {
	if s.prefs == nil {
		return false, nil
	}
	return s.prefs.SectionExpanded(ctx, section)
}

// ToggleSection flips the expansion state of a section and returns the new one.
func (s *Session) ToggleSection(ctx context.Context, section string) (bool, error) {
	if s.prefs == nil {
		return false, nil
	}
	open, err := s.prefs.SectionExpanded(ctx, section)
	if err != nil {
		return false, err
	}
	if err := s.prefs.SetSectionExpanded(ctx, section, !open); err != nil {
		return false, err
	}
	return !open, nil
}

func (s *Session) immediate(ctx context.Context, op string, fn func() error) error {
	return s.debounced(ctx, op, scheduler.ImmediateTarget, 0, fn)
}

func (s *Session) debounced(ctx context.Context, op, target string, delay time.Duration, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session: %w", model.ErrClosed)
	}
	if err := fn(); err != nil {
		return err
	}
	return s.commitLocked(ctx, op, target, delay)
}

// commitLocked schedules the difference between the scheduled persisted
// form and the current state, then announces the change.
func (s *Session) commitLocked(ctx context.Context, op, target string, delay time.Duration) error {
	next := s.codec.Values(s.engine.Snapshot())
	var p codec.Patch
	if s.setResync(false) {
		p = s.fullPatch(next)
	} else {
		p = codec.Diff(s.scheduled, next)
	}
	s.scheduled = next
	if err := s.sched.Debounce(target, delay, p); err != nil {
		return err
	}
	s.announceLocked(ctx, op)
	return nil
}

// fullPatch restates every owned key, deleting those next leaves unset.
func (s *Session) fullPatch(next url.Values) codec.Patch {
	p := codec.Patch{}
	for _, k := range s.codec.Keys() {
		p[k] = next.Get(k)
	}
	return p
}

func (s *Session) announceLocked(ctx context.Context, op string) {
	sn := s.engine.Snapshot()
	fp := sn.Fingerprint()
	if fp == s.notified {
		return
	}
	s.notified = fp
	if err := s.notifier.Notify(ctx, notify.Change{
		Session:       s.id,
		Operation:     op,
		Encoded:       s.codec.Encode(sn),
		Fingerprint:   fp,
		ActiveFilters: sn.ActiveFilterCount(s.reg),
		At:            time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("State change not announced", "operation", op, "error", err)
	}
}

// onFlush marks the session for a full rewrite after a failed write, since
// the location no longer matches what was scheduled.
func (s *Session) onFlush(target string, keys []string, err error) {
	if err != nil {
		s.setResync(true)
	}
}

// setResync stores v and returns the previous value.
func (s *Session) setResync(v bool) bool {
	s.resyncMu.Lock()
	defer s.resyncMu.Unlock()
	prev := s.resync
	s.resync = v
	return prev
}

func (s *Session) recordTags(ctx context.Context, tags ...string) {
	if s.prefs == nil || len(tags) == 0 {
		return
	}
	if err := s.prefs.RecordTags(ctx, tags...); err != nil {
		s.logger.Warn("Failed to record recent tags", "error", err)
	}
}
