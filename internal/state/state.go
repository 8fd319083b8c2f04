// Package state holds the canonical filter state and its immutable snapshots.
package state

import (
	"maps"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// State is the mutable canonical filter state. Only the reconcile engine
// and the codec construct or mutate it; everyone else reads a Snapshot.
type State struct {
	// Values holds every set canonical field. Unset fields are absent.
	Values map[string]model.Value

	// Preset is the active preset id, or empty.
	Preset string

	// QuickFilters lists active quick filter ids in activation order.
	QuickFilters []string

	Search string
	Type   string
	Sort   string
	Order  model.SortOrder
}

// Default returns the fully default state of reg.
func Default(reg *registry.Registry) State {
	d := reg.Defaults()
	return State{
		Values: make(map[string]model.Value),
		Type:   d.Type,
		Sort:   d.Sort,
		Order:  d.Order,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Values = make(map[string]model.Value, len(s.Values))
	for k, v := range s.Values {
		if v.IsSet() {
			out.Values[k] = v
		}
	}
	out.QuickFilters = slices.Clone(s.QuickFilters)
	return out
}

// Set assigns a field, deleting it when v is unset.
func (s *State) Set(field string, v model.Value) {
	if s.Values == nil {
		s.Values = make(map[string]model.Value)
	}
	if !v.IsSet() {
		delete(s.Values, field)
		return
	}
	s.Values[field] = v
}

// Get returns a field value; the zero Value when unset.
func (s State) Get(field string) model.Value {
	return s.Values[field]
}

// QuickFilterActive reports whether id is active.
func (s State) QuickFilterActive(id string) bool {
	return slices.Contains(s.QuickFilters, id)
}

// Snapshot returns an immutable copy.
func (s State) Snapshot() Snapshot {
	return Snapshot{s: s.Clone()}
}

// Snapshot is a read-only view of a State.
type Snapshot struct {
	s State
}

// Value returns a field value; the zero Value when unset.
func (sn Snapshot) Value(field string) model.Value { return sn.s.Values[field] }

// Fields returns the set fields in sorted order.
func (sn Snapshot) Fields() []string {
	return slices.Sorted(maps.Keys(sn.s.Values))
}

// Preset returns the active preset id, or empty.
func (sn Snapshot) Preset() string { return sn.s.Preset }

// QuickFilters returns active quick filter ids in activation order.
func (sn Snapshot) QuickFilters() []string { return slices.Clone(sn.s.QuickFilters) }

// QuickFilterActive reports whether id is active.
func (sn Snapshot) QuickFilterActive(id string) bool { return sn.s.QuickFilterActive(id) }

func (sn Snapshot) Search() string         { return sn.s.Search }
func (sn Snapshot) Type() string           { return sn.s.Type }
func (sn Snapshot) Sort() string           { return sn.s.Sort }
func (sn Snapshot) Order() model.SortOrder { return sn.s.Order }

// State returns a mutable deep copy.
func (sn Snapshot) State() State { return sn.s.Clone() }

// Equal reports whether two snapshots describe the same state. Quick filter
// activation order is ignored.
func (sn Snapshot) Equal(o Snapshot) bool {
	return sn.Fingerprint() == o.Fingerprint()
}

// ActiveFilterCount counts the definitions constraining results plus the
// free-text search. Match modes do not count on their own.
func (sn Snapshot) ActiveFilterCount(reg *registry.Registry) int {
	seen := map[string]bool{}
	for field := range sn.s.Values {
		d, role, ok := reg.FieldOwner(field)
		if !ok || role == registry.RoleMode {
			continue
		}
		seen[d.ID] = true
	}
	n := len(seen)
	if sn.s.Search != "" {
		n++
	}
	return n
}

// Fingerprint hashes the state content for cheap change detection.
func (sn Snapshot) Fingerprint() uint64 {
	h := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.Write([]byte{0})
		}
	}
	write(sn.s.Type, sn.s.Sort, string(sn.s.Order), sn.s.Search, sn.s.Preset)
	write("#quick")
	write(slices.Sorted(slices.Values(sn.s.QuickFilters))...)
	write("#values")
	for _, k := range sn.Fields() {
		v := sn.s.Values[k]
		write(k, strconv.Itoa(int(v.Kind())), v.Format())
	}
	return h.Sum64()
}
