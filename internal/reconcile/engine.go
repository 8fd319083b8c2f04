// Package reconcile owns the canonical filter state and merges every filter
// source into it.
package reconcile

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/state"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// Listener receives the state after every effective mutation.
type Listener func(state.Snapshot)

type subscriber struct {
	id int
	fn Listener
}

// Engine applies presets, quick filters, advanced filters and search to the
// canonical state. It is safe for concurrent use; listeners run after the
// internal lock is released, in subscription order.
type Engine struct {
	mu     sync.Mutex
	reg    *registry.Registry
	logger *slog.Logger

	st state.State
	// base holds every contribution that is not a quick filter: preset
	// snapshots, advanced edits, parsed expressions and decoded values.
	base map[string]model.Value

	subs   []subscriber
	nextID int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine holding the default state.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:    reg,
		logger: slog.Default(),
		st:     state.Default(reg),
		base:   make(map[string]model.Value),
	}
	for _, o := range opts {
		o(e)
	}
	e.logger = e.logger.With("component", "reconcile")
	return e
}

// Registry returns the registry the engine validates against.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Snapshot returns the current state.
func (e *Engine) Snapshot() state.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Snapshot()
}

// ActiveFilterCount returns the number of constraining definitions plus search.
func (e *Engine) ActiveFilterCount() int {
	return e.Snapshot().ActiveFilterCount(e.reg)
}

// Subscribe registers fn and returns a function removing it.
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscriber) bool { return s.id == id })
	}
}

// ApplyPreset replaces every filter, the search and the quick filters with
// the preset snapshot and adopts its sort. The result type is kept.
func (e *Engine) ApplyPreset(id string) error {
	p, ok := e.reg.Preset(id)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownPreset, id)
	}
	return e.mutate("apply_preset", true, func() {
		e.base = make(map[string]model.Value, len(p.Values))
		for k, v := range p.Values {
			e.base[k] = v
		}
		e.st.QuickFilters = nil
		e.st.Search = ""
		e.st.Preset = p.ID
		if p.Sort != "" {
			e.st.Sort = p.Sort
		}
		if p.Order != "" {
			e.st.Order = p.Order
		}
	})
}

// ClearPreset forgets the active preset id and nothing else.
func (e *Engine) ClearPreset() {
	e.mutate("clear_preset", false, func() {
		e.st.Preset = ""
	})
}

// ToggleQuickFilter activates id, or deactivates it when already active.
// Fields are re-derived from the remaining sources so a removed quick filter
// leaves no residue. Activation fails with model.ErrInvalidRange when the
// quick filter would push a lower bound past an upper bound.
func (e *Engine) ToggleQuickFilter(id string) error {
	if _, ok := e.reg.QuickFilter(id); !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownQuickFilter, id)
	}
	return e.mutate("toggle_quick_filter", true, func() {
		if e.st.QuickFilterActive(id) {
			e.st.QuickFilters = slices.DeleteFunc(e.st.QuickFilters, func(q string) bool { return q == id })
		} else {
			e.st.QuickFilters = append(e.st.QuickFilters, id)
		}
	})
}

// SetAdvancedFilter overwrites one canonical field; an unset value clears it.
// The active preset is cleared, quick filters are kept and still stack on top.
// A value inverting its range together with the other sources is rejected
// with model.ErrInvalidRange.
func (e *Engine) SetAdvancedFilter(field string, v model.Value) error {
	if err := e.checkValue(field, v); err != nil {
		return err
	}
	return e.mutate("set_advanced_filter", true, func() {
		setBase(e.base, field, v)
		e.st.Preset = ""
	})
}

// EditSet adds and removes members of a set field's base value. Active quick
// filters contributing a removed member are turned off with it, otherwise the
// member would come back through the stacking.
func (e *Engine) EditSet(field string, added, removed []string) error {
	if e.reg.Role(field) != registry.RoleSet {
		return fmt.Errorf("%w: %s", model.ErrUnknownField, field)
	}
	if err := e.checkValue(field, model.Set(added...)); err != nil {
		return err
	}
	return e.mutate("edit_set", true, func() {
		members := slices.DeleteFunc(e.base[field].Union(model.Set(added...)).Members(), func(m string) bool {
			return slices.Contains(removed, m)
		})
		setBase(e.base, field, model.Set(members...))
		e.st.QuickFilters = slices.DeleteFunc(e.st.QuickFilters, func(id string) bool {
			q, _ := e.reg.QuickFilter(id)
			return slices.ContainsFunc(removed, q.Values[field].Has)
		})
		e.st.Preset = ""
	})
}

// SetMode sets the match mode of a multi-select field.
func (e *Engine) SetMode(field string, mode model.SetMode) error {
	if e.reg.Role(field) != registry.RoleSet {
		return fmt.Errorf("%w: %s", model.ErrUnknownField, field)
	}
	switch mode {
	case model.ModeAny:
		return e.SetAdvancedFilter(field+registry.ModeSuffix, model.String(string(model.ModeAny)))
	case model.ModeAll, "":
		return e.SetAdvancedFilter(field+registry.ModeSuffix, model.Value{})
	}
	return fmt.Errorf("%w: mode %q", model.ErrInvalidValue, mode)
}

// SetSearch overwrites the free-text search and clears the active preset.
func (e *Engine) SetSearch(text string) {
	e.mutate("set_search", false, func() {
		e.st.Search = text
		e.st.Preset = ""
	})
}

// ApplyParsed applies a parsed expression. Multi-select values join the
// existing set; everything else overwrites its fields.
func (e *Engine) ApplyParsed(p model.ParsedFilter) error {
	values := p.Values()
	if len(values) == 0 {
		return fmt.Errorf("%w: empty filter", model.ErrInvalidValue)
	}
	for field, v := range values {
		if err := e.checkValue(field, v); err != nil {
			return err
		}
	}
	return e.mutate("apply_parsed", true, func() {
		for field, v := range values {
			if e.reg.Role(field) == registry.RoleSet {
				v = e.base[field].Union(v)
			}
			setBase(e.base, field, v)
		}
		e.st.Preset = ""
	})
}

// ClearField removes every value of a definition, including quick filters
// that contribute to it.
func (e *Engine) ClearField(definitionID string) error {
	d, ok := e.reg.Definition(definitionID)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownField, definitionID)
	}
	fields := d.Fields()
	if d.Kind == model.KindMultiSelect {
		fields = append(fields, d.Field+registry.ModeSuffix)
	}
	e.mutate("clear_field", false, func() {
		for _, f := range fields {
			delete(e.base, f)
		}
		e.st.QuickFilters = slices.DeleteFunc(e.st.QuickFilters, func(id string) bool {
			q, _ := e.reg.QuickFilter(id)
			for _, f := range fields {
				if _, touches := q.Values[f]; touches {
					return true
				}
			}
			return false
		})
		e.st.Preset = ""
	})
	return nil
}

// SetSort sets the sort field and direction.
func (e *Engine) SetSort(field string, order model.SortOrder) error {
	if !slices.Contains(e.reg.SortFields(), field) {
		return fmt.Errorf("%w: sort %q", model.ErrInvalidValue, field)
	}
	if !order.IsValid() {
		return fmt.Errorf("%w: order %q", model.ErrInvalidValue, order)
	}
	e.mutate("set_sort", false, func() {
		e.st.Sort = field
		e.st.Order = order
	})
	return nil
}

// SetType sets the result type.
func (e *Engine) SetType(t string) error {
	if !slices.Contains(e.reg.ResultTypes(), t) {
		return fmt.Errorf("%w: type %q", model.ErrInvalidValue, t)
	}
	e.mutate("set_type", false, func() {
		e.st.Type = t
	})
	return nil
}

// ClearAll resets filters, search, preset, quick filters and sort to their
// defaults. The result type is kept.
func (e *Engine) ClearAll() {
	e.mutate("clear_all", false, func() {
		t := e.st.Type
		e.st = state.Default(e.reg)
		e.st.Type = t
		e.base = make(map[string]model.Value)
	})
}

// Replace loads a decoded state. A field's base value is inferred as unset
// when the decoded value is exactly what the active quick filters produce;
// set members the quick filters contribute are left out of the base.
func (e *Engine) Replace(s state.State) {
	s = s.Clone()
	implied := quickOnly(e.reg, s.QuickFilters)
	base := make(map[string]model.Value, len(s.Values))
	for field, v := range s.Values {
		q, ok := implied[field]
		switch {
		case !ok:
		case e.reg.Role(field) == registry.RoleSet:
			v = model.Set(slices.DeleteFunc(v.Members(), q.Has)...)
		case q.Equal(v):
			continue
		}
		setBase(base, field, v)
	}
	e.mutate("replace", false, func() {
		e.st = s
		e.base = base
	})
}

// Base returns a copy of the non-quick-filter layer.
func (e *Engine) Base() map[string]model.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]model.Value, len(e.base))
	for k, v := range e.base {
		out[k] = v
	}
	return out
}

func (e *Engine) checkValue(field string, v model.Value) error {
	d, role, ok := e.reg.FieldOwner(field)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownField, field)
	}
	if !v.IsSet() {
		return nil
	}
	switch role {
	case registry.RoleMin, registry.RoleMax:
		n, ok := v.Num()
		if ok && d.InDomain(n) {
			return nil
		}
	case registry.RoleBool:
		if _, ok := v.Flag(); ok {
			return nil
		}
	case registry.RoleString:
		s, ok := v.Text()
		if ok && (d.Kind != model.KindSingleSelect || d.HasOption(s)) {
			return nil
		}
	case registry.RoleMode:
		s, ok := v.Text()
		if ok && (s == string(model.ModeAny) || s == string(model.ModeAll)) {
			return nil
		}
	case registry.RoleSet:
		if v.Kind() == model.ValueSet {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%s", model.ErrInvalidValue, field, v.Format())
}

// mutate runs fn under the lock, re-derives canonical values and notifies
// listeners when the state changed. Callers validate values before calling.
// With checked set, a result holding an inverted range is rolled back and
// reported as model.ErrInvalidRange.
func (e *Engine) mutate(op string, checked bool, fn func()) error {
	e.mu.Lock()
	prevSt, prevBase := e.st.Clone(), maps.Clone(e.base)
	before := e.st.Snapshot().Fingerprint()
	fn()
	e.st.Values = derive(e.reg, e.base, e.st.QuickFilters)
	if checked {
		if err := invertedRange(e.reg, e.st.Values); err != nil {
			e.st, e.base = prevSt, prevBase
			e.mu.Unlock()
			return err
		}
	}
	snap := e.st.Snapshot()
	changed := snap.Fingerprint() != before
	subs := slices.Clone(e.subs)
	e.mu.Unlock()

	if !changed {
		return nil
	}
	e.logger.Debug("Filter state changed", "op", op, "active_filters", snap.ActiveFilterCount(e.reg))
	for _, s := range subs {
		s.fn(snap)
	}
	return nil
}

// invertedRange reports the first range whose lower bound exceeds its upper bound.
func invertedRange(reg *registry.Registry, values map[string]model.Value) error {
	for _, d := range reg.Definitions() {
		if d.Kind != model.KindRange || d.MinField == "" || d.MaxField == "" {
			continue
		}
		lo, okLo := values[d.MinField].Num()
		hi, okHi := values[d.MaxField].Num()
		if okLo && okHi && lo > hi {
			return fmt.Errorf("%w: %s %s exceeds %s %s", model.ErrInvalidRange,
				d.MinField, values[d.MinField].Format(), d.MaxField, values[d.MaxField].Format())
		}
	}
	return nil
}

func setBase(base map[string]model.Value, field string, v model.Value) {
	if !v.IsSet() {
		delete(base, field)
		return
	}
	base[field] = v
}
