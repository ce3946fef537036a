package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryPolicy computes the pause before each retry of a failed unit of work.
type RetryPolicy struct {
	Base       time.Duration // pause after the first failure
	Multiplier float64       // growth factor applied per subsequent failure
	MaxDelay   time.Duration // upper bound on any single pause
	Jitter     float64       // fraction of each pause randomized away, 0-1
}

// DefaultRetryPolicy paces retries against a rate-limited generation API:
// two seconds after the first failure, doubling per failure, capped at
// thirty seconds, with 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Base:       2 * time.Second,
		Multiplier: 2,
		MaxDelay:   30 * time.Second,
		Jitter:     0.2,
	}
}

// DelayForAttempt returns the pause to take after the given number of
// failures so far (zero-based, so the first retry passes 0).
func (p RetryPolicy) DelayForAttempt(failures int) time.Duration {
	if p.Base <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.Base)
	for i := 0; i < failures; i++ {
		d *= mult
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d -= rand.Float64() * p.Jitter * d
	}
	return time.Duration(d)
}

// Fatal marks err as permanent so the executor fails the job without
// retrying. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

type fatalError struct{ err error }

func (e *fatalError) Error() string   { return e.err.Error() }
func (e *fatalError) Unwrap() error   { return e.err }
func (e *fatalError) Retryable() bool { return false }

// retryable reports whether err is worth another attempt. Errors are
// retryable unless something in the chain says otherwise through a
// Retryable() bool method.
func retryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// sleepWithContext pauses for d unless ctx ends first.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
