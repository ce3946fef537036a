package engine

import (
	"fmt"
	"math"
	"strings"
)

// ProgressEvent is a point-in-time update emitted at wave or batch
// granularity, never per job.
type ProgressEvent struct {
	Stage        string // stage the event belongs to, e.g. "phases" or "assets"
	Progress     int    // percent complete for the stage, 0-100
	Message      string
	CurrentIndex int // 1-based index of the wave or batch that just settled
	TotalIndex   int // total waves or batches in the stage
}

// ProgressReporter fans progress events out to a subscriber channel without
// ever blocking the emitter. Events are dropped when the subscriber lags.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter returns a reporter with room for 64 buffered events.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan ProgressEvent, 64)}
}

// Emit delivers event to the subscriber if there is buffer room and drops it
// otherwise.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns the channel events are delivered on.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the event channel. Emit must not be called after Close.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress renders an event as a single status line for terminal
// output.
func FormatProgress(ev ProgressEvent) string {
	glyph := "●"
	if ev.Progress >= 100 {
		glyph = "✓"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  %s [%s] %d%%", glyph, ev.Stage, ev.Progress)
	if ev.TotalIndex > 0 {
		fmt.Fprintf(&b, " (%d/%d)", ev.CurrentIndex, ev.TotalIndex)
	}
	if ev.Message != "" {
		b.WriteString(" ")
		b.WriteString(ev.Message)
	}
	return b.String()
}

// percent converts done out of total into a whole percentage.
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
