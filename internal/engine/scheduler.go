package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WaveScheduler executes a phase graph wave by wave. Every phase in a wave
// runs concurrently and the next wave starts only after the current one has
// fully settled.
//
// Failures stay local: a failed phase is recorded in the results while its
// siblings keep running, and its dependents are skipped with a
// DependencyError instead of being launched.
type WaveScheduler struct {
	onProgress func(ProgressEvent)
}

// NewWaveScheduler returns a scheduler. onProgress may be nil; when set it
// receives one event per settled wave.
func NewWaveScheduler(onProgress func(ProgressEvent)) *WaveScheduler {
	return &WaveScheduler{onProgress: onProgress}
}

// Execute runs the graph to completion and returns one result per phase,
// keyed by phase id. The error is non-nil only for an invalid graph or a
// canceled context; phase failures are recorded, never returned. On
// cancellation no new wave starts, phases already in flight are awaited, and
// every unstarted phase is recorded as failed with the context's error.
func (s *WaveScheduler) Execute(ctx context.Context, phases []Phase) (map[string]PhaseResult, error) {
	waves, err := PlanWaves(phases)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Phase, len(phases))
	for i := range phases {
		byID[phases[i].ID] = &phases[i]
	}

	results := make(map[string]PhaseResult, len(phases))
	var mu sync.Mutex

	for w, wave := range waves {
		if err := ctx.Err(); err != nil {
			failUnstarted(results, phases, err)
			return results, err
		}

		// Decide skips before launching anything so the results map is
		// only touched concurrently under the mutex.
		var launch []*Phase
		for _, id := range wave {
			phase := byID[id]
			if dep := firstFailedDep(phase, results); dep != "" {
				results[id] = PhaseResult{
					ID:      id,
					Err:     &DependencyError{PhaseID: id, Dependency: dep},
					Skipped: true,
				}
				continue
			}
			launch = append(launch, phase)
		}

		var g errgroup.Group
		for _, phase := range launch {
			g.Go(func() error {
				value, err := runUnit(ctx, phase.Work)
				mu.Lock()
				results[phase.ID] = PhaseResult{ID: phase.ID, Value: value, Err: err}
				mu.Unlock()
				return nil
			})
		}
		g.Wait() // phase errors live in results

		s.emitWave(w+1, len(waves), len(results), len(phases))
	}
	return results, nil
}

func (s *WaveScheduler) emitWave(wave, waves, done, total int) {
	if s.onProgress == nil {
		return
	}
	s.onProgress(ProgressEvent{
		Stage:        "phases",
		Progress:     percent(done, total),
		Message:      fmt.Sprintf("wave %d settled", wave),
		CurrentIndex: wave,
		TotalIndex:   waves,
	})
}
