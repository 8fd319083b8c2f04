package model

import "strings"

// Variant discriminates the shapes a parsed expression can take.
type Variant string

const (
	VariantRange   Variant = "range"
	VariantBoolean Variant = "boolean"
	VariantContent Variant = "content"
	VariantSearch  Variant = "search"
)

// ParsedFilter is the structured result of one filter expression.
type ParsedFilter struct {
	Variant    Variant
	Definition Definition

	// Range payload. Upper is only meaningful for OpBetween.
	Op    FilterOp
	Value float64
	Upper float64

	Bool bool
	Text string

	// Display is a human readable rendering, e.g. "CCU > 50K".
	Display string
}

// Values returns the canonical field assignments the filter implies.
// Multi-select values are returned as a set; callers union them.
func (p ParsedFilter) Values() map[string]Value {
	d := p.Definition
	switch p.Variant {
	case VariantRange:
		out := map[string]Value{}
		switch p.Op {
		case OpGt, OpGte:
			out[d.MinField] = Number(p.Value)
		case OpLt, OpLte:
			out[d.MaxField] = Number(p.Value)
		case OpEq:
			setBound(out, d.MinField, p.Value)
			setBound(out, d.MaxField, p.Value)
		case OpBetween:
			setBound(out, d.MinField, p.Value)
			setBound(out, d.MaxField, p.Upper)
		}
		return out
	case VariantBoolean:
		return map[string]Value{d.Field: Bool(p.Bool)}
	case VariantContent:
		if d.Kind == KindMultiSelect {
			return map[string]Value{d.Field: Set(p.Members()...)}
		}
		return map[string]Value{d.Field: String(p.Text)}
	case VariantSearch:
		return map[string]Value{d.Field: String(p.Text)}
	}
	return nil
}

// Members splits a multi-select value on commas. Blank members are dropped.
func (p ParsedFilter) Members() []string {
	var out []string
	for _, m := range strings.Split(p.Text, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func setBound(out map[string]Value, field string, v float64) {
	if field != "" {
		out[field] = Number(v)
	}
}
