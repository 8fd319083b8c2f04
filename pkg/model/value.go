package model

import (
	"slices"
	"strconv"
	"strings"
)

// ValueKind is the type tag of a canonical field value.
type ValueKind int

const (
	ValueUnset ValueKind = iota
	ValueNumber
	ValueBool
	ValueString
	ValueSet
)

// Value is an immutable canonical field value. The zero Value is unset.
type Value struct {
	kind ValueKind
	num  float64
	flag bool
	str  string
	set  []string
}

// Number returns a numeric value.
func Number(v float64) Value { return Value{kind: ValueNumber, num: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: ValueBool, flag: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: ValueString, str: v} }

// Set returns a set value. Members are sorted and deduplicated; empty
// members are dropped. A set without members is unset.
func Set(members ...string) Value {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != "" {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return Value{}
	}
	slices.Sort(out)
	return Value{kind: ValueSet, set: slices.Compact(out)}
}

// Kind returns the type tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsSet reports whether the value carries anything.
func (v Value) IsSet() bool { return v.kind != ValueUnset }

// Num returns the numeric payload.
func (v Value) Num() (float64, bool) { return v.num, v.kind == ValueNumber }

// Flag returns the boolean payload.
func (v Value) Flag() (bool, bool) { return v.flag, v.kind == ValueBool }

// Text returns the string payload.
func (v Value) Text() (string, bool) { return v.str, v.kind == ValueString }

// Members returns a copy of the set payload.
func (v Value) Members() []string {
	if v.kind != ValueSet {
		return nil
	}
	return slices.Clone(v.set)
}

// Has reports whether the set contains m.
func (v Value) Has(m string) bool {
	return v.kind == ValueSet && slices.Contains(v.set, m)
}

// Union merges two sets. A non-set operand counts as empty.
func (v Value) Union(o Value) Value {
	return Set(append(v.Members(), o.Members()...)...)
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueNumber:
		return v.num == o.num
	case ValueBool:
		return v.flag == o.flag
	case ValueString:
		return v.str == o.str
	case ValueSet:
		return slices.Equal(v.set, o.set)
	}
	return true
}

// Format renders the value the way it is persisted.
func (v Value) Format() string {
	switch v.kind {
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.flag)
	case ValueString:
		return v.str
	case ValueSet:
		return strings.Join(v.set, ",")
	}
	return ""
}

// Interface returns the payload as a plain Go value for query builders.
func (v Value) Interface() interface{} {
	switch v.kind {
	case ValueNumber:
		return v.num
	case ValueBool:
		return v.flag
	case ValueString:
		return v.str
	case ValueSet:
		return v.Members()
	}
	return nil
}
