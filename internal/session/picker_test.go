package session

import (
	"context"
	"testing"

	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPicker_CloseReadsLiveState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	p, err := f.s.OpenPicker("tag")
	require.NoError(t, err)
	require.NoError(t, p.Toggle("rpg"))

	// Edited elsewhere while the picker is open.
	_, err = f.s.ApplyExpression(ctx, "tag:indie")
	require.NoError(t, err)

	require.NoError(t, p.Close(ctx))
	assert.Equal(t, []string{"indie", "rpg"}, f.s.Snapshot().Value("tags").Members())

	f.clock.Tick()
	assert.Equal(t, "tags=indie%2Crpg", f.persisted(t))

	recent, err := f.s.RecentTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rpg", "indie"}, recent)

	assert.ErrorIs(t, p.Toggle("x"), model.ErrClosed)
	assert.NoError(t, p.Close(ctx), "closing twice is a no-op")
}

func TestPicker_Removal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	_, err := f.s.ApplyExpression(ctx, "genre:action")
	require.NoError(t, err)
	_, err = f.s.ApplyExpression(ctx, "genre:rpg")
	require.NoError(t, err)

	p, err := f.s.OpenPicker("genre")
	require.NoError(t, err)
	assert.Equal(t, []string{"action", "rpg"}, p.Selected())
	require.NoError(t, p.Toggle("action"))
	require.NoError(t, p.Close(ctx))

	assert.Equal(t, []string{"rpg"}, f.s.Snapshot().Value("genres").Members())
}

func TestPicker_DeselectTurnsOffContributingQuickFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	require.NoError(t, f.s.ToggleQuickFilter(ctx, "multiplayer"))
	require.NoError(t, f.s.ToggleQuickFilter(ctx, "linux"))
	_, err := f.s.ApplyExpression(ctx, "tag:action")
	require.NoError(t, err)

	p, err := f.s.OpenPicker("tag")
	require.NoError(t, err)
	assert.Equal(t, []string{"action", "multiplayer"}, p.Selected())
	require.NoError(t, p.Toggle("multiplayer"))
	require.NoError(t, p.Close(ctx))

	sn := f.s.Snapshot()
	assert.Equal(t, []string{"action"}, sn.Value("tags").Members())
	assert.False(t, sn.QuickFilterActive("multiplayer"))
	assert.True(t, sn.QuickFilterActive("linux"), "unrelated quick filters stay on")

	f.clock.Tick()
	assert.Equal(t, "filters=linux&platforms=linux&tags=action", f.persisted(t))
}

func TestPicker_DeclaredOptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	p, err := f.s.OpenPicker("platform")
	require.NoError(t, err)
	opts, err := p.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"windows", "mac", "linux"}, opts)

	assert.ErrorIs(t, p.Toggle("xbox"), model.ErrInvalidValue)
	require.NoError(t, p.Toggle("linux"))
	p.Cancel()
	require.NoError(t, p.Close(ctx))
	assert.False(t, f.s.Snapshot().Value("platforms").IsSet())
}

func TestPicker_FreeFormOptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	_, err := f.s.ApplyExpression(ctx, "tag:roguelike")
	require.NoError(t, err)

	p, err := f.s.OpenPicker("tag")
	require.NoError(t, err)
	require.NoError(t, p.Toggle("co-op"))
	opts, err := p.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"roguelike", "co-op"}, opts)
}

func TestOpenPicker_Errors(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.s.OpenPicker("nope")
	assert.ErrorIs(t, err, model.ErrUnknownField)
	_, err = f.s.OpenPicker("ccu")
	assert.ErrorIs(t, err, model.ErrInvalidValue)
}
