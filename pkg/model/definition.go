package model

import (
	"math"
	"slices"
)

// Kind is the value kind of a filterable dimension.
type Kind string

const (
	KindRange        Kind = "range"
	KindBoolean      Kind = "boolean"
	KindSingleSelect Kind = "select"
	KindMultiSelect  Kind = "multi_select"
	KindSearch       Kind = "search"
)

// Domain bounds the values a range field may hold.
type Domain struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the domain.
func (d Domain) Contains(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// NonNegative is the domain of counts and prices.
var NonNegative = Domain{Min: 0, Max: math.MaxFloat64}

// Definition describes one filterable dimension.
type Definition struct {
	// ID is the canonical name of the dimension.
	ID       string
	Shortcut string
	Aliases  []string
	Label    string
	Kind     Kind

	// Operators is only consulted for range definitions.
	Operators []FilterOp
	Unit      string

	// MinField and MaxField hold the canonical bound fields of a range.
	MinField string
	MaxField string

	// Field is the canonical field of every non-range kind.
	Field string

	// Options is the closed value set of a select; optional for multi-select.
	Options []string

	// Column is the data column the dimension resolves to.
	Column string
	Domain *Domain
}

// AllowsOp reports whether op is declared for the definition.
func (d Definition) AllowsOp(op FilterOp) bool {
	return slices.Contains(d.Operators, op)
}

// Names returns the shortcut followed by its aliases.
func (d Definition) Names() []string {
	return append([]string{d.Shortcut}, d.Aliases...)
}

// Fields returns the canonical fields owned by the definition.
func (d Definition) Fields() []string {
	if d.Kind != KindRange {
		return []string{d.Field}
	}
	var fields []string
	if d.MinField != "" {
		fields = append(fields, d.MinField)
	}
	if d.MaxField != "" {
		fields = append(fields, d.MaxField)
	}
	return fields
}

// HasOption reports whether v belongs to the closed option set.
func (d Definition) HasOption(v string) bool {
	return slices.Contains(d.Options, v)
}

// InDomain reports whether v is an acceptable bound for the definition.
func (d Definition) InDomain(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if d.Domain == nil {
		return true
	}
	return d.Domain.Contains(v)
}

// SortOrder is the direction of the result ordering.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// IsValid checks if the order is known.
func (o SortOrder) IsValid() bool {
	return o == OrderAsc || o == OrderDesc
}

// SetMode selects how a multi-select set matches rows.
type SetMode string

const (
	ModeAll SetMode = "all"
	ModeAny SetMode = "any"
)

// Preset is a mutually exclusive bundle of field values with a default sort.
type Preset struct {
	ID     string
	Label  string
	Values map[string]Value
	Sort   string
	Order  SortOrder
}

// QuickFilter is a stackable bundle of field values.
type QuickFilter struct {
	ID     string
	Label  string
	Values map[string]Value
}
