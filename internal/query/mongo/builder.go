// Package mongo translates resolved queries into MongoDB filters and find
// options.
package mongo

import (
	"fmt"
	"regexp"

	"github.com/draknorr/publisheriq-sub000/internal/query"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BuildFilter renders q as a find filter. Predicates on the same column are
// merged into a single operator document.
func BuildFilter(q model.Query) (bson.M, error) {
	out := bson.M{}
	if q.Type != "" {
		out[query.ColumnType] = bson.M{"$eq": q.Type}
	}
	for _, f := range q.Filters {
		op, val, err := mapFilter(f)
		if err != nil {
			return nil, err
		}
		cond, ok := out[f.Field].(bson.M)
		if !ok {
			cond = bson.M{}
			out[f.Field] = cond
		}
		cond[op] = val
		if f.Op == model.OpSearch {
			cond["$options"] = "i"
		}
	}
	return out, nil
}

// FindOptions returns sort and limit options for q. A zero limit leaves the
// result unbounded.
func FindOptions(q model.Query, limit int64) *options.FindOptions {
	opts := options.Find()
	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, o := range q.OrderBy {
			dir := 1
			if o.Direction == model.OrderDesc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: o.Field, Value: dir})
		}
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

func mapFilter(f model.Filter) (string, interface{}, error) {
	switch f.Op {
	case model.OpEq:
		return "$eq", f.Value, nil
	case model.OpGt:
		return "$gt", f.Value, nil
	case model.OpGte:
		return "$gte", f.Value, nil
	case model.OpLt:
		return "$lt", f.Value, nil
	case model.OpLte:
		return "$lte", f.Value, nil
	case model.OpIn, model.OpContainsAny:
		return "$in", f.Value, nil
	case model.OpContainsAll:
		return "$all", f.Value, nil
	case model.OpSearch:
		s, ok := f.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("search value for %s is not a string: %T", f.Field, f.Value)
		}
		return "$regex", regexp.QuoteMeta(s), nil
	default:
		return "", nil, fmt.Errorf("unsupported operator: %s", f.Op)
	}
}
