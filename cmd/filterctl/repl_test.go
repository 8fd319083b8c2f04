package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/draknorr/publisheriq-sub000/internal/registry"
	"github.com/draknorr/publisheriq-sub000/internal/session"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, script string) (*session.Session, *session.MemoryLocation, string) {
	t.Helper()
	loc := session.NewMemoryLocation("")
	s, err := session.New(session.Options{Registry: registry.Default(), Location: loc})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, newREPL(s, &out).Run(context.Background(), strings.NewReader(script)))
	require.NoError(t, s.Flush(context.Background()))
	return s, loc, out.String()
}

func TestREPL_Commands(t *testing.T) {
	s, loc, out := runScript(t, strings.Join([]string{
		"ccu > 50000",
		":quick free",
		":type dlc",
		":sort name asc",
		":set tags rpg, indie",
		":mode tags any",
		":search portal",
		":query",
	}, "\n"))

	assert.Contains(t, out, "applied: Peak CCU > 50K")
	assert.Contains(t, out, "cel: ")
	assert.Contains(t, out, "mongo: ")
	assert.Equal(t, []string{"indie", "rpg"}, s.Snapshot().Value("tags").Members())

	text, err := loc.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		"filters=free&isFree=true&minCcu=50000&order=asc&search=portal&sort=name&tags=indie%2Crpg&tagsMode=any&type=dlc",
		text)
}

func TestREPL_Errors(t *testing.T) {
	_, _, out := runScript(t, "ccuu > 100\n:bogus\n:quick nope\n:search a\n")

	assert.Contains(t, out, "did you mean:")
	assert.Contains(t, out, "ccu")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "unknown quick filter")
	assert.Contains(t, out, "search needs at least a few characters")
}

func TestREPL_QuitAndClear(t *testing.T) {
	s, _, _ := runScript(t, ":preset top_games\n:clear\n:quit\nfree:yes\n")
	assert.Empty(t, s.Snapshot().Preset())
	assert.False(t, s.Snapshot().Value("isFree").IsSet(), "lines after :quit are ignored")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		set  bool
		want model.Value
	}{
		{"", false, model.Value{}},
		{"12.5", false, model.Number(12.5)},
		{"true", false, model.Bool(true)},
		{"verified", false, model.String("verified")},
		{"rpg", true, model.Set("rpg")},
		{"rpg, indie,", true, model.Set("indie", "rpg")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseValue(tt.raw, tt.set)))
		})
	}
}
