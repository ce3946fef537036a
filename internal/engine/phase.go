package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Phase is one named unit of work in a dependency graph. Phases that share a
// wave run concurrently; a phase never starts before every phase named in
// DependsOn has settled.
type Phase struct {
	ID        string
	DependsOn []string
	Work      func(ctx context.Context) (any, error)
}

// PhaseResult records how a single phase settled.
type PhaseResult struct {
	ID      string
	Value   any
	Err     error
	Skipped bool
}

// Success reports whether the phase ran to completion.
func (r PhaseResult) Success() bool { return r.Err == nil && !r.Skipped }

// --- Errors ---

// GraphError reports a phase graph the scheduler refuses to execute.
type GraphError struct {
	Reason string
	Cycle  []string // populated when the reason is a dependency cycle
}

func (e *GraphError) Error() string {
	return "engine: invalid phase graph: " + e.Reason
}

// DependencyError marks a phase that was skipped because an upstream phase
// did not succeed.
type DependencyError struct {
	PhaseID    string
	Dependency string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("engine: phase %q skipped: dependency %q did not succeed", e.PhaseID, e.Dependency)
}

// --- Graph validation ---

// validateGraph rejects graphs that cannot execute: empty or duplicate phase
// ids, references to unknown phases, self-dependencies, and dependency
// cycles.
func validateGraph(phases []Phase) error {
	byID := make(map[string]struct{}, len(phases))
	for _, p := range phases {
		if p.ID == "" {
			return &GraphError{Reason: "phase with empty id"}
		}
		if _, ok := byID[p.ID]; ok {
			return &GraphError{Reason: fmt.Sprintf("duplicate phase id %q", p.ID)}
		}
		byID[p.ID] = struct{}{}
	}
	for _, p := range phases {
		for _, dep := range p.DependsOn {
			if dep == p.ID {
				return &GraphError{Reason: fmt.Sprintf("phase %q depends on itself", p.ID)}
			}
			if _, ok := byID[dep]; !ok {
				return &GraphError{Reason: fmt.Sprintf("phase %q depends on unknown phase %q", p.ID, dep)}
			}
		}
	}
	if cycle := findCycle(phases); len(cycle) > 0 {
		return &GraphError{
			Reason: fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
			Cycle:  cycle,
		}
	}
	return nil
}

// findCycle returns the phase ids forming a dependency cycle, with the entry
// phase repeated at the end, or nil when the graph is acyclic. Phases are
// visited in sorted order so the reported cycle is deterministic.
func findCycle(phases []Phase) []string {
	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)

	deps := make(map[string][]string, len(phases))
	ids := make([]string, 0, len(phases))
	for _, p := range phases {
		deps[p.ID] = p.DependsOn
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)

	color := make(map[string]int, len(phases))
	var cycle []string

	var visit func(id string, path []string) bool
	visit = func(id string, path []string) bool {
		color[id] = gray
		path = append(path, id)
		for _, dep := range deps[id] {
			switch color[dep] {
			case gray:
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle = append(append([]string{}, path[start:]...), dep)
				return true
			case white:
				if visit(dep, path) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range ids {
		if color[id] == white && visit(id, nil) {
			return cycle
		}
	}
	return nil
}

// --- Shared execution helpers ---

// runUnit invokes work and converts a panic into an error so one bad unit
// cannot take down the whole run.
func runUnit(ctx context.Context, work func(context.Context) (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("engine: work panicked: %v", r)
		}
	}()
	if work == nil {
		return nil, errors.New("engine: nil work function")
	}
	return work(ctx)
}

// firstFailedDep returns the id of the first dependency of p that settled
// without success, or "" when every settled dependency succeeded.
// Dependencies are checked in declaration order.
func firstFailedDep(p *Phase, results map[string]PhaseResult) string {
	for _, dep := range p.DependsOn {
		if res, ok := results[dep]; ok && !res.Success() {
			return dep
		}
	}
	return ""
}

// failUnstarted records a failure for every phase that has no result yet.
func failUnstarted(results map[string]PhaseResult, phases []Phase, cause error) {
	for _, p := range phases {
		if _, ok := results[p.ID]; !ok {
			results[p.ID] = PhaseResult{
				ID:  p.ID,
				Err: fmt.Errorf("engine: phase %s not started: %w", p.ID, cause),
			}
		}
	}
}
