package status

import (
	"sort"

	"github.com/framehaus/siteforge/internal/pipeline"
)

// PhaseStatus describes how one phase settled.
type PhaseStatus struct {
	ID      string
	Wave    int    // 1-based wave the phase was planned into
	Outcome string // ok, failed, or skipped
	Detail  string // error text, empty on success
}

// SectionStatus describes what one section ended up with.
type SectionStatus struct {
	Key        string
	Kind       string
	HasCopy    bool
	Primary    string // class of the primary asset, empty when none landed
	Supporting int
}

// JobTotals aggregates the asset job outcomes.
type JobTotals struct {
	Total     int
	Succeeded int
	Failed    int
	Retried   int // jobs that needed more than one attempt
	Persisted int // jobs with a stored artifact reference
}

// Report summarizes a completed generation run for display.
type Report struct {
	RunID    string
	State    string
	Waves    int
	Phases   []PhaseStatus
	Sections []SectionStatus
	Jobs     JobTotals
}

// BuildReport flattens a run result into a Report. Phases are ordered by
// wave, then id; sections keep plan order.
func BuildReport(res *pipeline.Result) *Report {
	report := &Report{
		RunID: res.Run.ID,
		State: res.Run.State.String(),
		Waves: len(res.Waves),
	}

	waveOf := make(map[string]int)
	for i, wave := range res.Waves {
		for _, id := range wave {
			waveOf[id] = i + 1
		}
	}

	for id, pr := range res.Phases {
		ps := PhaseStatus{ID: id, Wave: waveOf[id], Outcome: "ok"}
		switch {
		case pr.Skipped:
			ps.Outcome = "skipped"
		case pr.Err != nil:
			ps.Outcome = "failed"
		}
		if pr.Err != nil {
			ps.Detail = pr.Err.Error()
		}
		report.Phases = append(report.Phases, ps)
	}
	sort.Slice(report.Phases, func(i, j int) bool {
		if report.Phases[i].Wave != report.Phases[j].Wave {
			return report.Phases[i].Wave < report.Phases[j].Wave
		}
		return report.Phases[i].ID < report.Phases[j].ID
	})

	for _, s := range res.Sections {
		ss := SectionStatus{
			Key:        s.Key,
			Kind:       s.Kind,
			HasCopy:    s.Copy != "",
			Supporting: len(s.Supporting),
		}
		if s.Primary != nil {
			ss.Primary = string(s.Primary.Class)
		}
		report.Sections = append(report.Sections, ss)
	}

	for _, jr := range res.Jobs {
		report.Jobs.Total++
		if jr.Success() {
			report.Jobs.Succeeded++
		} else {
			report.Jobs.Failed++
		}
		if jr.Attempts > 1 {
			report.Jobs.Retried++
		}
		if jr.Ref != "" {
			report.Jobs.Persisted++
		}
	}

	return report
}
