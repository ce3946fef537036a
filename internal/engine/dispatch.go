package engine

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/semaphore"
)

// GraphExecutor dispatches phases the moment their dependencies succeed,
// keeping at most Budget phases in flight. Unlike WaveScheduler it has no
// wave barrier: a slow phase delays only its own dependents, and the
// in-flight cap holds even when a single wave is wider than the budget.
type GraphExecutor struct {
	budget     int64
	onProgress func(ProgressEvent)
}

// NewGraphExecutor returns an executor that keeps at most budget phases in
// flight; budget <= 0 means unbounded. onProgress may be nil; when set it
// receives one event per settled phase.
func NewGraphExecutor(budget int, onProgress func(ProgressEvent)) *GraphExecutor {
	return &GraphExecutor{budget: int64(budget), onProgress: onProgress}
}

// Execute runs the graph to completion with the same result contract as
// WaveScheduler.Execute: failures and skips are recorded per phase, and the
// error is non-nil only for an invalid graph or a canceled context.
func (e *GraphExecutor) Execute(ctx context.Context, phases []Phase) (map[string]PhaseResult, error) {
	if err := validateGraph(phases); err != nil {
		return nil, err
	}

	byID := make(map[string]*Phase, len(phases))
	inDegree := make(map[string]int, len(phases))
	dependents := make(map[string][]string, len(phases))
	for i := range phases {
		p := &phases[i]
		byID[p.ID] = p
		inDegree[p.ID] = len(p.DependsOn)
		for _, dep := range p.DependsOn {
			dependents[dep] = append(dependents[dep], p.ID)
		}
	}

	var ready []string
	for _, p := range phases {
		if inDegree[p.ID] == 0 {
			ready = append(ready, p.ID)
		}
	}
	sort.Strings(ready)

	var sem *semaphore.Weighted
	if e.budget > 0 {
		sem = semaphore.NewWeighted(e.budget)
	}

	results := make(map[string]PhaseResult, len(phases))
	completions := make(chan PhaseResult)
	inflight := 0

	// settle records a result and promotes dependents whose last dependency
	// just settled. Promotions keep ready sorted so dispatch order stays
	// deterministic.
	settle := func(res PhaseResult) {
		results[res.ID] = res
		promoted := false
		for _, id := range dependents[res.ID] {
			inDegree[id]--
			if inDegree[id] == 0 {
				ready = append(ready, id)
				promoted = true
			}
		}
		if promoted {
			sort.Strings(ready)
		}
		e.emitSettled(res, len(results), len(phases))
	}

	for len(results) < len(phases) {
		if err := ctx.Err(); err != nil {
			for inflight > 0 {
				res := <-completions
				inflight--
				results[res.ID] = res
			}
			failUnstarted(results, phases, err)
			return results, err
		}

		// Launch everything ready, short of the budget. Phases with a
		// failed dependency settle as skipped without consuming budget.
		for len(ready) > 0 {
			id := ready[0]
			phase := byID[id]

			if dep := firstFailedDep(phase, results); dep != "" {
				ready = ready[1:]
				settle(PhaseResult{
					ID:      id,
					Err:     &DependencyError{PhaseID: id, Dependency: dep},
					Skipped: true,
				})
				continue
			}

			if sem != nil && !sem.TryAcquire(1) {
				break
			}
			ready = ready[1:]
			inflight++
			go func() {
				value, err := runUnit(ctx, phase.Work)
				completions <- PhaseResult{ID: id, Value: value, Err: err}
			}()
		}

		if len(results) == len(phases) {
			break
		}

		select {
		case <-ctx.Done():
			for inflight > 0 {
				res := <-completions
				inflight--
				results[res.ID] = res
			}
			failUnstarted(results, phases, ctx.Err())
			return results, ctx.Err()
		case res := <-completions:
			inflight--
			if sem != nil {
				sem.Release(1)
			}
			settle(res)
		}
	}
	return results, nil
}

func (e *GraphExecutor) emitSettled(res PhaseResult, done, total int) {
	if e.onProgress == nil {
		return
	}
	outcome := "ok"
	switch {
	case res.Skipped:
		outcome = "skipped"
	case res.Err != nil:
		outcome = "failed"
	}
	e.onProgress(ProgressEvent{
		Stage:        "phases",
		Progress:     percent(done, total),
		Message:      fmt.Sprintf("%s %s", res.ID, outcome),
		CurrentIndex: done,
		TotalIndex:   total,
	})
}
