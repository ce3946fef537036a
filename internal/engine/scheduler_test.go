package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveScheduler_RunsEveryPhaseOnce(t *testing.T) {
	var mu sync.Mutex
	ran := map[string]int{}
	work := func(id string) func(context.Context) (any, error) {
		return func(context.Context) (any, error) {
			mu.Lock()
			ran[id]++
			mu.Unlock()
			return id + "-value", nil
		}
	}

	phases := []Phase{
		{ID: "a", Work: work("a")},
		{ID: "b", Work: work("b")},
		{ID: "c", DependsOn: []string{"a", "b"}, Work: work("c")},
	}

	results, err := NewWaveScheduler(nil).Execute(context.Background(), phases)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, 1, ran[id], "phase %s should run exactly once", id)
		assert.True(t, results[id].Success())
		assert.Equal(t, id+"-value", results[id].Value)
	}
}

func TestWaveScheduler_BarrierOrdersDependencies(t *testing.T) {
	var aDone, bDone atomic.Bool
	phases := []Phase{
		{ID: "a", Work: func(context.Context) (any, error) {
			time.Sleep(20 * time.Millisecond)
			aDone.Store(true)
			return nil, nil
		}},
		{ID: "b", Work: func(context.Context) (any, error) {
			bDone.Store(true)
			return nil, nil
		}},
		{ID: "c", DependsOn: []string{"a", "b"}, Work: func(context.Context) (any, error) {
			if !aDone.Load() || !bDone.Load() {
				return nil, errors.New("started before dependencies settled")
			}
			return nil, nil
		}},
	}

	results, err := NewWaveScheduler(nil).Execute(context.Background(), phases)
	require.NoError(t, err)
	assert.True(t, results["c"].Success(), "c ran too early: %v", results["c"].Err)
}

func TestWaveScheduler_FailureStaysLocal(t *testing.T) {
	boom := errors.New("boom")
	phases := []Phase{
		{ID: "bad", Work: func(context.Context) (any, error) { return nil, boom }},
		{ID: "good", Work: okWork("ok")},
	}

	results, err := NewWaveScheduler(nil).Execute(context.Background(), phases)
	require.NoError(t, err, "phase failures are recorded, never returned")
	assert.ErrorIs(t, results["bad"].Err, boom)
	assert.False(t, results["bad"].Skipped)
	assert.True(t, results["good"].Success())
}

func TestWaveScheduler_SkipsDependentsTransitively(t *testing.T) {
	boom := errors.New("boom")
	phases := []Phase{
		{ID: "a", Work: func(context.Context) (any, error) { return nil, boom }},
		{ID: "b", DependsOn: []string{"a"}, Work: mustNotRun(t, "b")},
		{ID: "c", DependsOn: []string{"b"}, Work: mustNotRun(t, "c")},
		{ID: "ok", Work: okWork("fine")},
	}

	results, err := NewWaveScheduler(nil).Execute(context.Background(), phases)
	require.NoError(t, err)

	var depErr *DependencyError
	require.ErrorAs(t, results["b"].Err, &depErr)
	assert.True(t, results["b"].Skipped)
	assert.Equal(t, "a", depErr.Dependency)

	require.ErrorAs(t, results["c"].Err, &depErr)
	assert.True(t, results["c"].Skipped)
	assert.Equal(t, "b", depErr.Dependency, "skips cascade through the graph")

	assert.True(t, results["ok"].Success())
}

func TestWaveScheduler_ContextCancellationStopsNewWaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	phases := []Phase{
		{ID: "first", Work: func(context.Context) (any, error) {
			cancel()
			return "done", nil
		}},
		{ID: "second", DependsOn: []string{"first"}, Work: mustNotRun(t, "second")},
	}

	results, err := NewWaveScheduler(nil).Execute(ctx, phases)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, results["first"].Success(), "the in-flight wave is awaited, not dropped")
	require.NotNil(t, results["second"].Err)
	assert.ErrorIs(t, results["second"].Err, context.Canceled)
}

func TestWaveScheduler_RecoversPanickingPhase(t *testing.T) {
	phases := []Phase{
		{ID: "explode", Work: func(context.Context) (any, error) { panic("kaboom") }},
		{ID: "calm", Work: okWork(1)},
	}

	results, err := NewWaveScheduler(nil).Execute(context.Background(), phases)
	require.NoError(t, err)
	require.Error(t, results["explode"].Err)
	assert.Contains(t, results["explode"].Err.Error(), "panicked")
	assert.True(t, results["calm"].Success())
}

func TestWaveScheduler_NilWorkIsRecordedFailure(t *testing.T) {
	results, err := NewWaveScheduler(nil).Execute(context.Background(), []Phase{{ID: "empty"}})
	require.NoError(t, err)
	assert.ErrorContains(t, results["empty"].Err, "nil work function")
}

func TestWaveScheduler_EmitsOneEventPerWave(t *testing.T) {
	var events []ProgressEvent
	sched := NewWaveScheduler(func(ev ProgressEvent) { events = append(events, ev) })

	phases := []Phase{
		{ID: "a", Work: noopWork},
		{ID: "b", DependsOn: []string{"a"}, Work: noopWork},
	}
	_, err := sched.Execute(context.Background(), phases)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "phases", events[0].Stage)
	assert.Equal(t, 50, events[0].Progress)
	assert.Equal(t, 1, events[0].CurrentIndex)
	assert.Equal(t, 2, events[0].TotalIndex)
	assert.Equal(t, 100, events[1].Progress)
}
