package engine

import (
	"fmt"
	"time"
)

// Defaults applied by BoundedBatchExecutor when Config fields are zero.
const (
	DefaultMaxConcurrent = 4
	DefaultRetryBudget   = 3
	DefaultBatchPause    = 500 * time.Millisecond
)

// Config tunes a BoundedBatchExecutor.
type Config struct {
	// MaxConcurrent caps in-flight jobs; it is also the batch size.
	MaxConcurrent int
	// RetryBudget is the attempts allowed per job, including the first.
	RetryBudget int
	// Retry schedules the pause before each retry.
	Retry RetryPolicy
	// BatchPause separates consecutive batches so a rate-limited provider
	// is never hit by back-to-back bursts.
	BatchPause time.Duration
	// Stage labels progress events from this executor.
	Stage string
	// Persister, when set, stores each produced value before the job is
	// reported successful.
	Persister Persister
	// OnProgress, when set, receives one event per settled batch.
	OnProgress func(ProgressEvent)
	// Verbose enables per-job diagnostic logging.
	Verbose bool
}

// withDefaults fills zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.RetryBudget == 0 {
		c.RetryBudget = DefaultRetryBudget
	}
	if c.Retry == (RetryPolicy{}) {
		c.Retry = DefaultRetryPolicy()
	}
	if c.BatchPause == 0 {
		c.BatchPause = DefaultBatchPause
	}
	if c.Stage == "" {
		c.Stage = "batch"
	}
	return c
}

// Validate rejects settings the executor cannot honor.
func (c Config) Validate() error {
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("engine: max concurrent must not be negative, got %d", c.MaxConcurrent)
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("engine: retry budget must not be negative, got %d", c.RetryBudget)
	}
	if c.BatchPause < 0 {
		return fmt.Errorf("engine: batch pause must not be negative, got %v", c.BatchPause)
	}
	return nil
}
