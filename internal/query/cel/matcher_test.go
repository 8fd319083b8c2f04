package cel

import (
	"testing"

	"github.com/draknorr/publisheriq-sub000/internal/query"
	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/state"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rows = []map[string]interface{}{
	{
		"name": "Hades", "type": "game", "ccu_peak": 60000.0, "price": 24.99, "is_free": false,
		"tags": []string{"roguelike", "action"}, "platforms": []string{"windows", "mac"},
		"publisher_name": "Supergiant Games",
	},
	{
		"name": "Dota 2", "type": "game", "ccu_peak": 800000.0, "price": 0.0, "is_free": true,
		"tags": []string{"moba", "multiplayer"}, "platforms": []string{"windows", "mac", "linux"},
		"publisher_name": "Valve",
	},
	{
		"name": "Half-Life: Alyx", "type": "game", "ccu_peak": 43000.0, "price": 59.99, "is_free": false,
		"tags": []string{"vr", "action"}, "platforms": []string{"windows"},
		"publisher_name": "Valve",
	},
	{
		"name": "Hades Soundtrack", "type": "dlc", "ccu_peak": 10.0, "price": 9.99,
	},
}

func names(t *testing.T, m *Matcher) []string {
	t.Helper()
	matched, err := m.Filter(rows)
	require.NoError(t, err)
	var out []string
	for _, r := range matched {
		out = append(out, r["name"].(string))
	}
	return out
}

func compile(t *testing.T, build func(s *state.State)) *Matcher {
	t.Helper()
	reg := registry.Default()
	s := state.Default(reg)
	build(&s)
	c, err := NewCompiler()
	require.NoError(t, err)
	m, err := c.Compile(query.Resolve(reg, s.Snapshot()))
	require.NoError(t, err)
	return m
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name  string
		build func(s *state.State)
		want  []string
	}{
		{"default type", func(s *state.State) {}, []string{"Hades", "Dota 2", "Half-Life: Alyx"}},
		{"all types", func(s *state.State) { s.Type = query.AllTypes }, []string{"Hades", "Dota 2", "Half-Life: Alyx", "Hades Soundtrack"}},
		{"dlc", func(s *state.State) { s.Type = "dlc" }, []string{"Hades Soundtrack"}},
		{"min ccu", func(s *state.State) { s.Set("minCcu", model.Number(50000)) }, []string{"Hades", "Dota 2"}},
		{"ccu range", func(s *state.State) {
			s.Set("minCcu", model.Number(1000))
			s.Set("maxCcu", model.Number(70000))
		}, []string{"Hades", "Half-Life: Alyx"}},
		{"free", func(s *state.State) { s.Set("isFree", model.Bool(true)) }, []string{"Dota 2"}},
		{"tags all", func(s *state.State) { s.Set("tags", model.Set("action", "vr")) }, []string{"Half-Life: Alyx"}},
		{"tags any", func(s *state.State) {
			s.Set("tags", model.Set("vr", "moba"))
			s.Set("tagsMode", model.String("any"))
		}, []string{"Dota 2", "Half-Life: Alyx"}},
		{"platform", func(s *state.State) { s.Set("platforms", model.Set("linux")) }, []string{"Dota 2"}},
		{"publisher search", func(s *state.State) { s.Set("publisherSearch", model.String("VALVE")) }, []string{"Dota 2", "Half-Life: Alyx"}},
		{"name search", func(s *state.State) {
			s.Type = query.AllTypes
			s.Search = "hades"
		}, []string{"Hades", "Hades Soundtrack"}},
		{"missing column", func(s *state.State) {
			s.Type = query.AllTypes
			s.Set("maxPrice", model.Number(10))
			s.Set("isFree", model.Bool(false))
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(t, compile(t, tt.build)))
		})
	}
}

func TestExpression(t *testing.T) {
	expr, err := Expression(model.Query{})
	require.NoError(t, err)
	assert.Equal(t, "true", expr)

	expr, err = Expression(model.Query{Filters: model.Filters{
		{Field: "ccu_peak", Op: model.OpGte, Value: 1000.0},
		{Field: "name", Op: model.OpSearch, Value: `Say "Hi"`},
	}})
	require.NoError(t, err)
	assert.Equal(t,
		`("ccu_peak" in doc && doc["ccu_peak"] >= 1000.0) && `+
			`("name" in doc && doc["name"].lowerAscii().contains("say \"hi\""))`,
		expr)
}

func TestExpression_Errors(t *testing.T) {
	_, err := Expression(model.Query{Filters: model.Filters{{Field: "a", Op: model.OpBetween, Value: 1.0}}})
	assert.Error(t, err)

	_, err = Expression(model.Query{Filters: model.Filters{{Field: "a", Op: model.OpEq, Value: struct{}{}}}})
	assert.Error(t, err)

	_, err = Expression(model.Query{Filters: model.Filters{{Field: "a", Op: model.OpSearch, Value: 1}}})
	assert.Error(t, err)
}
