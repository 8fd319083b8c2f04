package parser

import (
	"errors"
	"strconv"
	"testing"

	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser() *Parser {
	return New(registry.Default())
}

func requireParseError(t *testing.T, err error, code Code) *ParseError {
	t.Helper()
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
	assert.Equal(t, code, pe.Code, pe.Message)
	return pe
}

func TestParse_Scenarios(t *testing.T) {
	p := newParser()

	t.Run("ccu > 50000", func(t *testing.T) {
		f, err := p.Parse("ccu > 50000")
		require.NoError(t, err)
		assert.Equal(t, model.VariantRange, f.Variant)
		assert.Equal(t, "ccu", f.Definition.ID)
		assert.Equal(t, model.OpGt, f.Op)
		assert.Equal(t, 50000.0, f.Value)
		assert.Contains(t, f.Display, "50K")
		assert.True(t, f.Values()["minCcu"].Equal(model.Number(50000)))
	})

	t.Run("free:yes", func(t *testing.T) {
		f, err := p.Parse("free:yes")
		require.NoError(t, err)
		assert.Equal(t, model.VariantBoolean, f.Variant)
		assert.True(t, f.Bool)
	})

	t.Run("ccu 1000-50000", func(t *testing.T) {
		f, err := p.Parse("ccu 1000-50000")
		require.NoError(t, err)
		assert.Equal(t, model.OpBetween, f.Op)
		assert.Equal(t, 1000.0, f.Value)
		assert.Equal(t, 50000.0, f.Upper)
	})

	t.Run("ccuu > 100", func(t *testing.T) {
		_, err := p.Parse("ccuu > 100")
		pe := requireParseError(t, err, CodeUnknownShortcut)
		assert.Contains(t, pe.Suggestions, "ccu")
		assert.ErrorIs(t, err, model.ErrUnknownShortcut)
	})
}

func TestParse_RangeRoundTrip(t *testing.T) {
	p := newParser()
	for _, d := range registry.Default().Definitions() {
		if d.Kind != model.KindRange {
			continue
		}
		v := 50.0
		if !d.InDomain(v) {
			v = d.Domain.Min
		}
		for _, op := range d.Operators {
			if op == model.OpBetween {
				continue
			}
			input := d.Shortcut + " " + string(op) + " " + strconv.FormatFloat(v, 'f', -1, 64)
			t.Run(input, func(t *testing.T) {
				f, err := p.Parse(input)
				require.NoError(t, err)
				assert.Equal(t, d.ID, f.Definition.ID)
				assert.Equal(t, op, f.Op)
				assert.Equal(t, v, f.Value)
			})
		}
	}
}

func TestParse_Between(t *testing.T) {
	p := newParser()

	pairs := [][2]float64{{0, 0}, {1, 2}, {100, 100}, {10, 99999}}
	for _, ab := range pairs {
		in := "owners " + strconv.FormatFloat(ab[0], 'f', -1, 64) + "-" + strconv.FormatFloat(ab[1], 'f', -1, 64)
		f, err := p.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, model.OpBetween, f.Op)
		assert.Equal(t, ab[0], f.Value)
		assert.Equal(t, ab[1], f.Upper)
	}

	_, err := p.Parse("ccu 50000-1000")
	requireParseError(t, err, CodeInvalidRange)
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	_, err = p.Parse("score 50-150")
	requireParseError(t, err, CodeInvalidRange)

	_, err = p.Parse("discount 10-20")
	requireParseError(t, err, CodeUnsupportedOperator)

	_, err = p.Parse("free 1-2")
	requireParseError(t, err, CodeKindMismatch)
}

func TestParse_NegativeBounds(t *testing.T) {
	p := newParser()

	for _, in := range []string{"growth -20-10", "growth -20 - 10", "growth -50--20"} {
		f, err := p.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, model.OpBetween, f.Op, in)
		assert.Less(t, f.Value, 0.0, in)
	}

	f, err := p.Parse("growth -20-10")
	require.NoError(t, err)
	assert.Equal(t, -20.0, f.Value)
	assert.Equal(t, 10.0, f.Upper)

	f, err = p.Parse("growth > -20")
	require.NoError(t, err)
	assert.Equal(t, -20.0, f.Value)

	_, err = p.Parse("growth -200-10")
	requireParseError(t, err, CodeInvalidRange)

	_, err = p.Parse("ccu -5-10")
	requireParseError(t, err, CodeInvalidRange)
}

func TestParse_MultiSelectList(t *testing.T) {
	p := newParser()

	f, err := p.Parse("genre:RPG, action,")
	require.NoError(t, err)
	assert.Equal(t, "rpg,action", f.Text)
	assert.Equal(t, "Genre: rpg, action", f.Display)
	assert.True(t, model.Set("action", "rpg").Equal(f.Values()["genres"]))

	f, err = p.Parse("platform:linux,mac")
	require.NoError(t, err)
	assert.Equal(t, []string{"linux", "mac"}, f.Values()["platforms"].Members())

	_, err = p.Parse("platform:linux,xbox")
	pe := requireParseError(t, err, CodeInvalidSelectValue)
	assert.Equal(t, "xbox", pe.Token)

	_, err = p.Parse("tag: , ")
	requireParseError(t, err, CodeInvalidSelectValue)
}

func TestParse_Operators(t *testing.T) {
	p := newParser()

	f, err := p.Parse("  CCU >= 50k ")
	require.NoError(t, err)
	assert.Equal(t, model.OpGte, f.Op)
	assert.Equal(t, 50000.0, f.Value)
	assert.Equal(t, "Peak CCU ≥ 50K", f.Display)

	f, err = p.Parse("players<10")
	require.NoError(t, err)
	assert.Equal(t, "ccu", f.Definition.ID)
	assert.Equal(t, model.OpLt, f.Op)

	f, err = p.Parse("price <= 20")
	require.NoError(t, err)
	assert.Equal(t, "Price ≤ 20 USD", f.Display)

	f, err = p.Parse("score = 80")
	require.NoError(t, err)
	assert.Equal(t, "Review score = 80%", f.Display)
	vals := f.Values()
	assert.True(t, vals["minScore"].Equal(model.Number(80)))
	assert.True(t, vals["maxScore"].Equal(model.Number(80)))

	_, err = p.Parse("discount < 10")
	pe := requireParseError(t, err, CodeUnsupportedOperator)
	assert.Equal(t, []string{"discount > 10", "discount >= 10"}, pe.Suggestions)

	_, err = p.Parse("ccu > lots")
	requireParseError(t, err, CodeInvalidRange)

	_, err = p.Parse("ccu > -5")
	requireParseError(t, err, CodeInvalidRange)

	_, err = p.Parse("genre > 5")
	requireParseError(t, err, CodeKindMismatch)
}

func TestParse_Booleans(t *testing.T) {
	p := newParser()

	tests := []struct {
		in   string
		want bool
	}{
		{"free:yes", true},
		{"free:true", true},
		{"free : no", false},
		{"workshop:false", false},
		{"no:ea", false},
		{"early:yes", true},
		{"achievements", true},
		{"FREE", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := p.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, model.VariantBoolean, f.Variant)
			assert.Equal(t, tt.want, f.Bool)
		})
	}

	_, err := p.Parse("ccu:yes")
	requireParseError(t, err, CodeKindMismatch)

	_, err = p.Parse("no:ccu")
	requireParseError(t, err, CodeKindMismatch)

	_, err = p.Parse("free:maybe")
	pe := requireParseError(t, err, CodeKindMismatch)
	assert.Equal(t, []string{"free:yes", "free:no"}, pe.Suggestions)
}

func TestParse_Content(t *testing.T) {
	p := newParser()

	f, err := p.Parse("genre:Action")
	require.NoError(t, err)
	assert.Equal(t, model.VariantContent, f.Variant)
	assert.Equal(t, "action", f.Text)
	assert.Equal(t, "Genre: action", f.Display)

	f, err = p.Parse("tag: open world ")
	require.NoError(t, err)
	assert.Equal(t, "open world", f.Text)

	f, err = p.Parse("deck:Verified")
	require.NoError(t, err)
	assert.Equal(t, "verified", f.Text)

	f, err = p.Parse("pub:valve")
	require.NoError(t, err)
	assert.Equal(t, model.VariantSearch, f.Variant)
	assert.Equal(t, "publisher", f.Definition.ID)

	_, err = p.Parse("deck:maybe")
	pe := requireParseError(t, err, CodeInvalidSelectValue)
	assert.Equal(t, []string{"deck:verified", "deck:playable", "deck:unsupported"}, pe.Suggestions)
	assert.ErrorIs(t, err, model.ErrInvalidSelectValue)

	_, err = p.Parse("platform:xbox")
	requireParseError(t, err, CodeInvalidSelectValue)

	_, err = p.Parse("ccu:5000")
	pe = requireParseError(t, err, CodeKindMismatch)
	assert.Equal(t, []string{"ccu > 5000", "ccu >= 5000"}, pe.Suggestions)
}

func TestParse_Failures(t *testing.T) {
	p := newParser()

	for _, in := range []string{"", "   "} {
		_, err := p.Parse(in)
		pe := requireParseError(t, err, CodeEmpty)
		assert.Empty(t, pe.Suggestions)
		assert.ErrorIs(t, err, model.ErrEmptyExpression)
	}

	_, err := p.Parse("ccu")
	requireParseError(t, err, CodeKindMismatch)

	_, err = p.Parse("frea")
	pe := requireParseError(t, err, CodeUnknownShortcut)
	assert.Equal(t, "free", pe.Suggestions[0])

	_, err = p.Parse("rev")
	pe = requireParseError(t, err, CodeUnknownShortcut)
	require.GreaterOrEqual(t, len(pe.Suggestions), 2)
	assert.Equal(t, []string{"reviews", "score"}, pe.Suggestions[:2])
	assert.LessOrEqual(t, len(pe.Suggestions), 3)

	_, err = p.Parse("ccu >")
	pe = requireParseError(t, err, CodeNoMatch)
	assert.NotEmpty(t, pe.Suggestions)

	_, err = p.Parse("> 5")
	pe = requireParseError(t, err, CodeNoMatch)
	assert.Empty(t, pe.Suggestions)
}

func TestCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1500, "1.5K"},
		{50000, "50K"},
		{1234567, "1.2M"},
		{2.5e9, "2.5B"},
		{-2000, "-2K"},
		{12.5, "12.5"},
		{999999, "1M"},
		{999950, "1M"},
		{999949, "999.9K"},
		{999999999, "1B"},
		{-999999, "-1M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compact(tt.in))
	}
}
