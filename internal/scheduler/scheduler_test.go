package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draknorr/publisheriq-sub000/internal/codec"
	"github.com/draknorr/publisheriq-sub000/internal/scheduler"
	"github.com/draknorr/publisheriq-sub000/internal/scheduler/schedulertest"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debounce = 300 * time.Millisecond

func setup() (*scheduler.Scheduler, *schedulertest.FakeClock, *schedulertest.RecordingSink) {
	clock := schedulertest.NewFakeClock()
	sink := schedulertest.NewRecordingSink()
	return scheduler.New(sink, scheduler.Options{Clock: clock}), clock, sink
}

func TestImmediate_FlushesOnNextTick(t *testing.T) {
	s, clock, sink := setup()

	require.NoError(t, s.Immediate(codec.Patch{"filters": "popular"}))
	require.NoError(t, s.Immediate(codec.Patch{"preset": ""}))
	assert.Empty(t, sink.Patches(), "nothing is written synchronously")

	clock.Tick()
	assert.Equal(t, []codec.Patch{{"filters": "popular", "preset": ""}}, sink.Patches())
	assert.Empty(t, s.Pending())
}

func TestDebounce_CoalescesBurst(t *testing.T) {
	s, clock, sink := setup()

	for _, q := range []string{"h", "ha", "hal"} {
		require.NoError(t, s.Debounce("search", debounce, codec.Patch{"search": q}))
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, sink.Patches())
	assert.Equal(t, []string{"search"}, s.Pending())

	clock.Advance(199 * time.Millisecond)
	assert.Empty(t, sink.Patches())

	clock.Advance(time.Millisecond)
	assert.Equal(t, []codec.Patch{{"search": "hal"}}, sink.Patches())
	assert.Equal(t, 0, clock.Armed())
}

func TestDebounce_MergesPatchesForSameTarget(t *testing.T) {
	s, clock, sink := setup()

	require.NoError(t, s.Debounce("advanced", debounce, codec.Patch{"minCcu": "10"}))
	require.NoError(t, s.Debounce("advanced", debounce, codec.Patch{"maxCcu": "90"}))
	clock.Advance(debounce)

	assert.Equal(t, []codec.Patch{{"minCcu": "10", "maxCcu": "90"}}, sink.Patches())
}

func TestDebounce_IndependentTargets(t *testing.T) {
	s, clock, sink := setup()

	require.NoError(t, s.Debounce("search", debounce, codec.Patch{"search": "hades"}))
	require.NoError(t, s.Immediate(codec.Patch{"filters": "free"}))

	clock.Tick()
	assert.Equal(t, []codec.Patch{{"filters": "free"}}, sink.Patches())

	clock.Advance(debounce)
	assert.Equal(t, []codec.Patch{{"filters": "free"}, {"search": "hades"}}, sink.Patches())
}

func TestNewerPatchWithdrawsOverlappingKeys(t *testing.T) {
	s, clock, sink := setup()

	require.NoError(t, s.Debounce("advanced", debounce, codec.Patch{"minCcu": "500", "maxCcu": "900"}))
	require.NoError(t, s.Immediate(codec.Patch{"minCcu": "", "preset": "top_games"}))

	clock.Tick()
	clock.Advance(debounce)
	assert.Equal(t, []codec.Patch{
		{"minCcu": "", "preset": "top_games"},
		{"maxCcu": "900"},
	}, sink.Patches())
}

func TestNewerPatchDropsFullyCoveredTarget(t *testing.T) {
	s, clock, sink := setup()

	require.NoError(t, s.Debounce("search", debounce, codec.Patch{"search": "old"}))
	require.NoError(t, s.Immediate(codec.Patch{"search": ""}))
	assert.Equal(t, []string{scheduler.ImmediateTarget}, s.Pending())

	clock.Advance(debounce)
	assert.Equal(t, []codec.Patch{{"search": ""}}, sink.Patches())
}

func TestReset_SupersedesPendingTimers(t *testing.T) {
	s, clock, sink := setup()

	require.NoError(t, s.Debounce("search", debounce, codec.Patch{"search": "hades"}))
	require.NoError(t, s.Debounce("advanced", debounce, codec.Patch{"minScore": "80"}))
	require.NoError(t, s.Reset(codec.Patch{"filters": ""}))

	clock.Advance(time.Second)
	assert.Equal(t, []codec.Patch{{"filters": ""}}, sink.Patches())
}

func TestReset_EmptyPatch(t *testing.T) {
	s, clock, sink := setup()
	require.NoError(t, s.Debounce("search", debounce, codec.Patch{"search": "x"}))
	require.NoError(t, s.Reset(nil))

	clock.Advance(time.Second)
	assert.Empty(t, sink.Patches())
	assert.Empty(t, s.Pending())
}

func TestFlush_WritesOldestFirst(t *testing.T) {
	s, clock, sink := setup()

	require.NoError(t, s.Debounce("search", debounce, codec.Patch{"search": "hades"}))
	require.NoError(t, s.Immediate(codec.Patch{"filters": "free"}))

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []codec.Patch{{"search": "hades"}, {"filters": "free"}}, sink.Patches())

	clock.Advance(time.Second)
	assert.Len(t, sink.Patches(), 2, "stopped timers never write again")
}

func TestFlush_Canceled(t *testing.T) {
	s, _, sink := setup()
	require.NoError(t, s.Immediate(codec.Patch{"filters": "free"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Flush(ctx)
	assert.ErrorIs(t, err, model.ErrCanceled)
	assert.Empty(t, sink.Patches())
}

func TestClose(t *testing.T) {
	s, _, sink := setup()
	require.NoError(t, s.Debounce("search", debounce, codec.Patch{"search": "x"}))

	require.NoError(t, s.Close(context.Background()))
	assert.Len(t, sink.Patches(), 1)

	assert.ErrorIs(t, s.Immediate(codec.Patch{"a": "b"}), model.ErrClosed)
	assert.ErrorIs(t, s.Reset(codec.Patch{"a": "b"}), model.ErrClosed)
}

func TestSinkError(t *testing.T) {
	clock := schedulertest.NewFakeClock()
	sink := schedulertest.NewRecordingSink()
	sink.SetError(errors.New("navigation failed"))

	var flushed []error
	s := scheduler.New(sink, scheduler.Options{
		Clock: clock,
		OnFlush: func(target string, keys []string, err error) {
			flushed = append(flushed, err)
		},
	})

	require.NoError(t, s.Immediate(codec.Patch{"a": "1"}))
	clock.Tick()
	require.Len(t, flushed, 1)
	assert.Error(t, flushed[0])

	require.NoError(t, s.Immediate(codec.Patch{"a": "2"}))
	err := s.Flush(context.Background())
	assert.ErrorContains(t, err, "navigation failed")
}

func TestEmptyPatchIsNoop(t *testing.T) {
	s, clock, _ := setup()
	require.NoError(t, s.Immediate(codec.Patch{}))
	assert.Empty(t, s.Pending())
	assert.Equal(t, 0, clock.Armed())
}

func TestRealClock(t *testing.T) {
	sink := schedulertest.NewRecordingSink()
	s := scheduler.New(sink, scheduler.Options{})

	require.NoError(t, s.Debounce("search", 10*time.Millisecond, codec.Patch{"search": "a"}))
	require.NoError(t, s.Debounce("search", 10*time.Millisecond, codec.Patch{"search": "ab"}))

	require.Eventually(t, func() bool {
		return len(sink.Patches()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, codec.Patch{"search": "ab"}, sink.Patches()[0])
}
