package model

import "slices"

// FilterOp defines the supported filter operators.
type FilterOp string

const (
	OpGt      FilterOp = ">"       // Greater than
	OpGte     FilterOp = ">="      // Greater than or equal
	OpLt      FilterOp = "<"       // Less than
	OpLte     FilterOp = "<="      // Less than or equal
	OpEq      FilterOp = "="       // Equal
	OpBetween FilterOp = "between" // Inclusive range, both bounds

	// Operators below only appear in resolved queries, never in expressions.
	OpIn          FilterOp = "in"           // Field value in list
	OpContainsAny FilterOp = "contains_any" // Array field shares at least one value
	OpContainsAll FilterOp = "contains_all" // Array field holds every value
	OpSearch      FilterOp = "search"       // Case-insensitive substring
)

// ValidOps returns all valid filter operators.
func ValidOps() []FilterOp {
	return []FilterOp{OpGt, OpGte, OpLt, OpLte, OpEq, OpBetween, OpIn, OpContainsAny, OpContainsAll, OpSearch}
}

// RangeOps returns the operators a range definition may declare.
func RangeOps() []FilterOp {
	return []FilterOp{OpGt, OpGte, OpLt, OpLte, OpEq, OpBetween}
}

// IsValid checks if the operator is valid.
func (op FilterOp) IsValid() bool {
	return slices.Contains(ValidOps(), op)
}

// IsRange reports whether op can appear in a range expression.
func (op FilterOp) IsRange() bool {
	return slices.Contains(RangeOps(), op)
}

// Symbol returns the display symbol for a comparison operator.
func (op FilterOp) Symbol() string {
	switch op {
	case OpGte:
		return "≥"
	case OpLte:
		return "≤"
	default:
		return string(op)
	}
}

// Filters is a slice of Filter.
type Filters []Filter

// Filter is one resolved query predicate over a data column.
type Filter struct {
	Field string      `json:"field"`
	Op    FilterOp    `json:"op"`
	Value interface{} `json:"value"`
}

// Validate checks if the filter is valid.
func (f Filter) Validate() bool {
	if f.Field == "" {
		return false
	}
	return f.Op.IsValid() && f.Op != OpBetween
}
