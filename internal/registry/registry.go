// Package registry holds the static catalog of filter definitions, presets
// and quick filters.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// Role describes what a canonical field holds.
type Role int

const (
	RoleUnknown Role = iota
	RoleMin
	RoleMax
	RoleBool
	RoleString
	RoleSet
	RoleMode
)

// ModeSuffix is appended to a multi-select field to name its match mode.
const ModeSuffix = "Mode"

// Defaults are the values of the fixed scalar keys when nothing is set.
type Defaults struct {
	Type  string
	Sort  string
	Order model.SortOrder
}

// Catalog is the declarative input of a Registry.
type Catalog struct {
	Definitions  []model.Definition
	Presets      []model.Preset
	QuickFilters []model.QuickFilter
	ResultTypes  []string
	SortFields   []string
	Defaults     Defaults
}

type fieldRef struct {
	def  int
	role Role
}

// Registry is a read-only lookup table over a Catalog.
type Registry struct {
	catalog  Catalog
	byName   map[string]int
	byID     map[string]int
	byField  map[string]fieldRef
	presets  map[string]int
	quick    map[string]int
	allNames []string
}

// New validates the catalog and builds its indexes.
func New(c Catalog) (*Registry, error) {
	r := &Registry{
		catalog: c,
		byName:  make(map[string]int),
		byID:    make(map[string]int),
		byField: make(map[string]fieldRef),
		presets: make(map[string]int),
		quick:   make(map[string]int),
	}
	if err := r.index(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew is New for catalogs known at compile time.
func MustNew(c Catalog) *Registry {
	r, err := New(c)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) index() error {
	for i, d := range r.catalog.Definitions {
		if _, dup := r.byID[d.ID]; dup {
			return fmt.Errorf("duplicate definition id %q", d.ID)
		}
		r.byID[d.ID] = i
		for _, name := range d.Names() {
			name = strings.ToLower(name)
			if _, dup := r.byName[name]; dup {
				return fmt.Errorf("duplicate shortcut %q", name)
			}
			r.byName[name] = i
			r.allNames = append(r.allNames, name)
		}
		refs := map[string]Role{}
		switch d.Kind {
		case model.KindRange:
			if d.MinField != "" {
				refs[d.MinField] = RoleMin
			}
			if d.MaxField != "" {
				refs[d.MaxField] = RoleMax
			}
		case model.KindBoolean:
			refs[d.Field] = RoleBool
		case model.KindSingleSelect, model.KindSearch:
			refs[d.Field] = RoleString
		case model.KindMultiSelect:
			refs[d.Field] = RoleSet
			refs[d.Field+ModeSuffix] = RoleMode
		}
		for field, role := range refs {
			if field == "" {
				continue
			}
			if _, dup := r.byField[field]; dup {
				return fmt.Errorf("field %q owned by more than one definition", field)
			}
			r.byField[field] = fieldRef{def: i, role: role}
		}
	}
	for i, p := range r.catalog.Presets {
		if _, dup := r.presets[p.ID]; dup {
			return fmt.Errorf("duplicate preset %q", p.ID)
		}
		r.presets[p.ID] = i
	}
	for i, q := range r.catalog.QuickFilters {
		if _, dup := r.quick[q.ID]; dup {
			return fmt.Errorf("duplicate quick filter %q", q.ID)
		}
		r.quick[q.ID] = i
	}
	return nil
}

// Validate checks the catalog invariants.
func (r *Registry) Validate() error {
	var errs []error
	for _, d := range r.catalog.Definitions {
		if err := validateDefinition(d); err != nil {
			errs = append(errs, fmt.Errorf("definition %q: %w", d.ID, err))
		}
	}
	for _, p := range r.catalog.Presets {
		if err := r.validateValues(p.Values); err != nil {
			errs = append(errs, fmt.Errorf("preset %q: %w", p.ID, err))
		}
		if p.Sort != "" && !slices.Contains(r.catalog.SortFields, p.Sort) {
			errs = append(errs, fmt.Errorf("preset %q: unknown sort field %q", p.ID, p.Sort))
		}
		if p.Order != "" && !p.Order.IsValid() {
			errs = append(errs, fmt.Errorf("preset %q: invalid order %q", p.ID, p.Order))
		}
	}
	for _, q := range r.catalog.QuickFilters {
		if err := r.validateValues(q.Values); err != nil {
			errs = append(errs, fmt.Errorf("quick filter %q: %w", q.ID, err))
		}
	}
	def := r.catalog.Defaults
	if !slices.Contains(r.catalog.ResultTypes, def.Type) {
		errs = append(errs, fmt.Errorf("default type %q is not a result type", def.Type))
	}
	if !slices.Contains(r.catalog.SortFields, def.Sort) {
		errs = append(errs, fmt.Errorf("default sort %q is not a sort field", def.Sort))
	}
	if !def.Order.IsValid() {
		errs = append(errs, fmt.Errorf("default order %q is invalid", def.Order))
	}
	return errors.Join(errs...)
}

func validateDefinition(d model.Definition) error {
	if d.Shortcut == "" {
		return errors.New("shortcut is required")
	}
	switch d.Kind {
	case model.KindRange:
		if d.MinField == "" && d.MaxField == "" {
			return errors.New("range needs a min or max field")
		}
		if len(d.Operators) == 0 {
			return errors.New("range needs operators")
		}
		for _, op := range d.Operators {
			if !op.IsRange() {
				return fmt.Errorf("operator %q is not a range operator", op)
			}
			needMin := op == model.OpGt || op == model.OpGte || op == model.OpEq || op == model.OpBetween
			needMax := op == model.OpLt || op == model.OpLte || op == model.OpEq || op == model.OpBetween
			if needMin && d.MinField == "" || needMax && d.MaxField == "" {
				return fmt.Errorf("operator %q has no bound field", op)
			}
		}
	case model.KindSingleSelect:
		if d.Field == "" || len(d.Options) == 0 {
			return errors.New("select needs a field and options")
		}
	case model.KindBoolean, model.KindMultiSelect, model.KindSearch:
		if d.Field == "" {
			return errors.New("field is required")
		}
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	return nil
}

func (r *Registry) validateValues(values map[string]model.Value) error {
	for field, v := range values {
		role := r.Role(field)
		var ok bool
		switch role {
		case RoleMin, RoleMax:
			_, ok = v.Num()
		case RoleBool:
			_, ok = v.Flag()
		case RoleString, RoleMode:
			_, ok = v.Text()
		case RoleSet:
			ok = v.Kind() == model.ValueSet
		}
		if !ok {
			return fmt.Errorf("%w: %s", model.ErrInvalidValue, field)
		}
	}
	return nil
}

// Lookup resolves a shortcut or alias, case-insensitively.
func (r *Registry) Lookup(shortcut string) (model.Definition, bool) {
	i, ok := r.byName[strings.ToLower(shortcut)]
	if !ok {
		return model.Definition{}, false
	}
	return r.catalog.Definitions[i], true
}

// Definition returns the definition with the given id.
func (r *Registry) Definition(id string) (model.Definition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.Definition{}, false
	}
	return r.catalog.Definitions[i], true
}

// Definitions returns every definition in declaration order.
func (r *Registry) Definitions() []model.Definition {
	return slices.Clone(r.catalog.Definitions)
}

// FieldOwner returns the definition owning a canonical field and the field's role.
func (r *Registry) FieldOwner(field string) (model.Definition, Role, bool) {
	ref, ok := r.byField[field]
	if !ok {
		return model.Definition{}, RoleUnknown, false
	}
	return r.catalog.Definitions[ref.def], ref.role, true
}

// Role returns the role of a canonical field, or RoleUnknown.
func (r *Registry) Role(field string) Role {
	return r.byField[field].role
}

// Fields returns every canonical field in declaration order.
func (r *Registry) Fields() []string {
	var out []string
	for _, d := range r.catalog.Definitions {
		out = append(out, d.Fields()...)
		if d.Kind == model.KindMultiSelect {
			out = append(out, d.Field+ModeSuffix)
		}
	}
	return out
}

// Shortcuts returns every shortcut and alias in declaration order.
func (r *Registry) Shortcuts() []string {
	return slices.Clone(r.allNames)
}

// Preset returns the preset with the given id.
func (r *Registry) Preset(id string) (model.Preset, bool) {
	i, ok := r.presets[id]
	if !ok {
		return model.Preset{}, false
	}
	return r.catalog.Presets[i], true
}

// Presets returns every preset in declaration order.
func (r *Registry) Presets() []model.Preset {
	return slices.Clone(r.catalog.Presets)
}

// QuickFilter returns the quick filter with the given id.
func (r *Registry) QuickFilter(id string) (model.QuickFilter, bool) {
	i, ok := r.quick[id]
	if !ok {
		return model.QuickFilter{}, false
	}
	return r.catalog.QuickFilters[i], true
}

// QuickFilters returns every quick filter in declaration order.
func (r *Registry) QuickFilters() []model.QuickFilter {
	return slices.Clone(r.catalog.QuickFilters)
}

// QuickFilterIndex orders quick filter ids by declaration.
func (r *Registry) QuickFilterIndex(id string) int {
	if i, ok := r.quick[id]; ok {
		return i
	}
	return -1
}

// ResultTypes returns the accepted values of the type key.
func (r *Registry) ResultTypes() []string {
	return slices.Clone(r.catalog.ResultTypes)
}

// SortFields returns the accepted values of the sort key.
func (r *Registry) SortFields() []string {
	return slices.Clone(r.catalog.SortFields)
}

// Defaults returns the default type, sort and order.
func (r *Registry) Defaults() Defaults {
	return r.catalog.Defaults
}
