package engine

import (
	"math"
	"sort"
)

// PlanWaves partitions a phase graph into executable waves. Wave n holds
// every phase whose dependencies all live in earlier waves, so members of one
// wave are mutually independent and safe to run concurrently. Members are
// sorted for deterministic output. The graph is validated first; planning a
// nil or empty slice yields nil waves.
func PlanWaves(phases []Phase) ([][]string, error) {
	if err := validateGraph(phases); err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		return nil, nil
	}

	deps := make(map[string][]string, len(phases))
	for _, p := range phases {
		deps[p.ID] = p.DependsOn
	}

	placed := make(map[string]bool, len(phases))
	var waves [][]string
	for len(placed) < len(phases) {
		var wave []string
		for id, dd := range deps {
			if placed[id] {
				continue
			}
			ready := true
			for _, d := range dd {
				if !placed[d] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, id)
			}
		}
		if len(wave) == 0 {
			return nil, &GraphError{Reason: "dependency cycle"}
		}
		sort.Strings(wave)
		for _, id := range wave {
			placed[id] = true
		}
		waves = append(waves, wave)
	}
	return waves, nil
}

// SavingsEstimate compares sequential execution against wave execution,
// counting scheduling steps rather than wall time.
type SavingsEstimate struct {
	SequentialSteps int `json:"sequentialSteps"`
	ParallelSteps   int `json:"parallelSteps"`
	SavingsPercent  int `json:"savingsPercent"`
}

// EstimateTimeSavings reports how many steps wave execution saves over
// running every phase back to back, assuming each phase costs one step. A
// fully parallel ten-phase graph collapses to one step and saves 90%.
func EstimateTimeSavings(phases []Phase) (SavingsEstimate, error) {
	waves, err := PlanWaves(phases)
	if err != nil {
		return SavingsEstimate{}, err
	}
	est := SavingsEstimate{
		SequentialSteps: len(phases),
		ParallelSteps:   len(waves),
	}
	if est.SequentialSteps > 0 {
		ratio := 1 - float64(est.ParallelSteps)/float64(est.SequentialSteps)
		est.SavingsPercent = int(math.Round(ratio * 100))
	}
	return est, nil
}
