package engine

import (
	"context"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"
)

// PriorityClass ranks a job's artifact within its target section. The
// canonical classes are hero, primary, and supporting; other values are
// tolerated and sort after all three.
type PriorityClass string

const (
	ClassHero       PriorityClass = "hero"
	ClassPrimary    PriorityClass = "primary"
	ClassSupporting PriorityClass = "supporting"
)

// rank orders classes for batching, most important first.
func (c PriorityClass) rank() int {
	switch c {
	case ClassHero:
		return 0
	case ClassPrimary:
		return 1
	case ClassSupporting:
		return 2
	default:
		return 3
	}
}

// Known reports whether c is one of the canonical classes.
func (c PriorityClass) Known() bool { return c.rank() < 3 }

// Job is one independent unit of work for the batch executor.
type Job struct {
	// Key groups the job's result under a projection target.
	Key string
	// Class decides batching order and the projection slot.
	Class PriorityClass
	// Payload is opaque to the executor; callers use it to describe the job.
	Payload any
	// RetryBudget overrides the executor's attempt budget when positive.
	RetryBudget int
	// Work produces the job's value.
	Work func(ctx context.Context) (any, error)
}

// JobResult records how one job settled. The job succeeded exactly when Err
// is nil.
type JobResult struct {
	Key      string
	Class    PriorityClass
	Value    any
	Ref      string // persisted reference, when the executor has a Persister
	Err      error
	Attempts int
}

// Success reports whether the job produced and, if configured, persisted its
// value.
func (r JobResult) Success() bool { return r.Err == nil }

// Persister stores a produced value outside the run and hands back a stable
// reference to it.
type Persister interface {
	Save(ctx context.Context, key string, class PriorityClass, value any) (ref string, err error)
}

// SortJobs stably orders jobs hero first so the most important artifacts
// land in the earliest batches.
func SortJobs(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].Class.rank() < jobs[j].Class.rank()
	})
}

// BoundedBatchExecutor runs independent jobs in fixed-size batches. A batch
// holds at most MaxConcurrent jobs and the next batch starts only after
// every job in the current one has settled, so in-flight work never exceeds
// the cap. Consecutive batches are separated by BatchPause.
type BoundedBatchExecutor struct {
	cfg Config
}

// NewBoundedBatchExecutor returns an executor with zero config fields filled
// from package defaults.
func NewBoundedBatchExecutor(cfg Config) *BoundedBatchExecutor {
	return &BoundedBatchExecutor{cfg: cfg.withDefaults()}
}

// Execute runs every job and returns one result per job in input order. Job
// failures are recorded in the results, never returned; the error is non-nil
// only for an invalid config or a canceled context. On cancellation the
// current batch is awaited and every unstarted job is recorded as failed
// with the context's error.
func (e *BoundedBatchExecutor) Execute(ctx context.Context, jobs []Job) ([]JobResult, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	total := len(jobs)
	results := make([]JobResult, total)
	batches := (total + e.cfg.MaxConcurrent - 1) / e.cfg.MaxConcurrent

	for b := 0; b < batches; b++ {
		start := b * e.cfg.MaxConcurrent
		end := min(start+e.cfg.MaxConcurrent, total)

		if err := ctx.Err(); err != nil {
			e.failRemaining(results, jobs, start, err)
			return results, err
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = e.runJob(ctx, jobs[i])
				return nil
			})
		}
		g.Wait() // job errors live in results

		e.emitBatch(b+1, batches, end, total, results[start:end])

		if b < batches-1 {
			if err := sleepWithContext(ctx, e.cfg.BatchPause); err != nil {
				e.failRemaining(results, jobs, end, err)
				return results, err
			}
		}
	}
	return results, nil
}

// runJob drives one job through its attempt budget and, on success, the
// persistence step. Production is never re-run when only persistence fails.
func (e *BoundedBatchExecutor) runJob(ctx context.Context, job Job) JobResult {
	budget := job.RetryBudget
	if budget <= 0 {
		budget = e.cfg.RetryBudget
	}

	res := JobResult{Key: job.Key, Class: job.Class}
	var lastErr error

	for attempt := 1; attempt <= budget; attempt++ {
		res.Attempts = attempt
		value, err := runUnit(ctx, job.Work)
		if err == nil {
			return e.persist(ctx, job, value, res)
		}
		lastErr = err

		if !retryable(err) {
			if e.cfg.Verbose {
				log.Printf("job %s: permanent failure on attempt %d: %v", job.Key, attempt, err)
			}
			break
		}
		if attempt == budget {
			break
		}
		delay := e.cfg.Retry.DelayForAttempt(attempt - 1)
		if e.cfg.Verbose {
			log.Printf("job %s: attempt %d failed, retrying in %v: %v", job.Key, attempt, delay, err)
		}
		if serr := sleepWithContext(ctx, delay); serr != nil {
			lastErr = serr
			break
		}
	}

	res.Err = fmt.Errorf("engine: job %s failed after %d attempt(s): %w", job.Key, res.Attempts, lastErr)
	return res
}

// persist runs the persistence step for a produced value as its own step,
// after production has already succeeded.
func (e *BoundedBatchExecutor) persist(ctx context.Context, job Job, value any, res JobResult) JobResult {
	res.Value = value
	if e.cfg.Persister == nil {
		return res
	}
	ref, err := e.cfg.Persister.Save(ctx, job.Key, job.Class, value)
	if err != nil {
		res.Err = fmt.Errorf("engine: persist job %s: %w", job.Key, err)
		return res
	}
	res.Ref = ref
	return res
}

// failRemaining records every job from index from onward as failed with
// cause.
func (e *BoundedBatchExecutor) failRemaining(results []JobResult, jobs []Job, from int, cause error) {
	for i := from; i < len(jobs); i++ {
		results[i] = JobResult{
			Key:   jobs[i].Key,
			Class: jobs[i].Class,
			Err:   fmt.Errorf("engine: job %s not started: %w", jobs[i].Key, cause),
		}
	}
}

func (e *BoundedBatchExecutor) emitBatch(batch, batches, done, total int, settled []JobResult) {
	if e.cfg.OnProgress == nil {
		return
	}
	failed := 0
	for _, r := range settled {
		if !r.Success() {
			failed++
		}
	}
	msg := fmt.Sprintf("%d jobs settled", len(settled))
	if failed > 0 {
		msg = fmt.Sprintf("%d jobs settled, %d failed", len(settled), failed)
	}
	e.cfg.OnProgress(ProgressEvent{
		Stage:        e.cfg.Stage,
		Progress:     percent(done, total),
		Message:      msg,
		CurrentIndex: batch,
		TotalIndex:   batches,
	})
}
