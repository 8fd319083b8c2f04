package mongo

import (
	"testing"

	"github.com/draknorr/publisheriq-sub000/internal/query"
	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/state"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildFilter(t *testing.T) {
	reg := registry.Default()
	s := state.Default(reg)
	s.Set("minCcu", model.Number(1000))
	s.Set("maxCcu", model.Number(5000))
	s.Set("isFree", model.Bool(true))
	s.Set("genres", model.Set("rpg", "action"))
	s.Set("platforms", model.Set("linux"))
	s.Set("platformsMode", model.String("any"))
	s.Search = "half-life (2)"

	got, err := BuildFilter(query.Resolve(reg, s.Snapshot()))
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"type":      bson.M{"$eq": "game"},
		"ccu_peak":  bson.M{"$gte": 1000.0, "$lte": 5000.0},
		"is_free":   bson.M{"$eq": true},
		"genres":    bson.M{"$all": []string{"action", "rpg"}},
		"platforms": bson.M{"$in": []string{"linux"}},
		"name":      bson.M{"$regex": `half-life \(2\)`, "$options": "i"},
	}, got)
}

func TestBuildFilter_Empty(t *testing.T) {
	got, err := BuildFilter(model.Query{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildFilter_Errors(t *testing.T) {
	_, err := BuildFilter(model.Query{Filters: model.Filters{{Field: "a", Op: model.OpBetween}}})
	assert.Error(t, err)

	_, err = BuildFilter(model.Query{Filters: model.Filters{{Field: "a", Op: model.OpSearch, Value: 3}}})
	assert.Error(t, err)
}

func TestFindOptions(t *testing.T) {
	q := model.Query{OrderBy: []model.Order{
		{Field: "ccu_peak", Direction: model.OrderDesc},
		{Field: "name", Direction: model.OrderAsc},
	}}
	opts := FindOptions(q, 50)
	assert.Equal(t, bson.D{{Key: "ccu_peak", Value: -1}, {Key: "name", Value: 1}}, opts.Sort)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(50), *opts.Limit)

	opts = FindOptions(model.Query{}, 0)
	assert.Nil(t, opts.Sort)
	assert.Nil(t, opts.Limit)
}
