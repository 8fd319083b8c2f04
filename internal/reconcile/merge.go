package reconcile

import (
	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// Merge combines two contributions to the same field under the stacking
// policy: max of mins, min of maxes, OR of booleans, union of sets and
// last-applied-wins for strings. Unset operands are neutral.
func Merge(role registry.Role, prev, next model.Value) model.Value {
	if !prev.IsSet() {
		return next
	}
	if !next.IsSet() {
		return prev
	}
	switch role {
	case registry.RoleMin:
		a, _ := prev.Num()
		b, _ := next.Num()
		return model.Number(max(a, b))
	case registry.RoleMax:
		a, _ := prev.Num()
		b, _ := next.Num()
		return model.Number(min(a, b))
	case registry.RoleBool:
		a, _ := prev.Flag()
		b, _ := next.Flag()
		return model.Bool(a || b)
	case registry.RoleSet:
		return prev.Union(next)
	default:
		return next
	}
}

// derive rebuilds canonical values from the base layer and the active quick
// filters, in activation order. Nothing else contributes.
func derive(reg *registry.Registry, base map[string]model.Value, quick []string) map[string]model.Value {
	out := make(map[string]model.Value, len(base))
	for k, v := range base {
		if v.IsSet() {
			out[k] = v
		}
	}
	for _, id := range quick {
		q, ok := reg.QuickFilter(id)
		if !ok {
			continue
		}
		for field, v := range q.Values {
			out[field] = Merge(reg.Role(field), out[field], v)
		}
	}
	return out
}

// quickOnly derives the values the active quick filters would produce on an
// empty base.
func quickOnly(reg *registry.Registry, quick []string) map[string]model.Value {
	return derive(reg, nil, quick)
}
