// Package query turns canonical filter state into an executor-neutral
// model.Query.
package query

import (
	"strings"

	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/state"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
)

// Columns shared by every result row.
const (
	ColumnType = "type"
	ColumnName = "name"
)

// AllTypes disables the result type restriction.
const AllTypes = "all"

// Resolve builds the query described by sn. Filters follow registry order,
// so equal snapshots resolve to equal queries.
func Resolve(reg *registry.Registry, sn state.Snapshot) model.Query {
	q := model.Query{
		OrderBy: []model.Order{{Field: sn.Sort(), Direction: sn.Order()}},
	}
	if sn.Type() != AllTypes {
		q.Type = sn.Type()
	}

	for _, d := range reg.Definitions() {
		if d.Column == "" {
			continue
		}
		q.Filters = append(q.Filters, resolveDefinition(d, sn)...)
	}

	if search := strings.TrimSpace(sn.Search()); search != "" {
		q.Filters = append(q.Filters, model.Filter{Field: ColumnName, Op: model.OpSearch, Value: search})
	}
	return q
}

func resolveDefinition(d model.Definition, sn state.Snapshot) model.Filters {
	switch d.Kind {
	case model.KindRange:
		lo, okLo := sn.Value(d.MinField).Num()
		hi, okHi := sn.Value(d.MaxField).Num()
		switch {
		case okLo && okHi && lo == hi:
			return model.Filters{{Field: d.Column, Op: model.OpEq, Value: lo}}
		case okLo && okHi:
			return model.Filters{
				{Field: d.Column, Op: model.OpGte, Value: lo},
				{Field: d.Column, Op: model.OpLte, Value: hi},
			}
		case okLo:
			return model.Filters{{Field: d.Column, Op: model.OpGte, Value: lo}}
		case okHi:
			return model.Filters{{Field: d.Column, Op: model.OpLte, Value: hi}}
		}
	case model.KindBoolean:
		if b, ok := sn.Value(d.Field).Flag(); ok {
			return model.Filters{{Field: d.Column, Op: model.OpEq, Value: b}}
		}
	case model.KindSingleSelect:
		if s, ok := sn.Value(d.Field).Text(); ok {
			return model.Filters{{Field: d.Column, Op: model.OpEq, Value: s}}
		}
	case model.KindMultiSelect:
		v := sn.Value(d.Field)
		if !v.IsSet() {
			return nil
		}
		op := model.OpContainsAll
		if mode, _ := sn.Value(d.Field + registry.ModeSuffix).Text(); mode == string(model.ModeAny) {
			op = model.OpContainsAny
		}
		return model.Filters{{Field: d.Column, Op: op, Value: v.Members()}}
	case model.KindSearch:
		if s, ok := sn.Value(d.Field).Text(); ok && strings.TrimSpace(s) != "" {
			return model.Filters{{Field: d.Column, Op: model.OpSearch, Value: strings.TrimSpace(s)}}
		}
	}
	return nil
}
