package engine

// ProjectionTarget is a keyed domain record that receives projected job
// results. Implementations decide what primary and supporting mean for their
// own rendering.
type ProjectionTarget interface {
	// TargetKey groups results: every JobResult whose Key equals TargetKey
	// belongs to this target.
	TargetKey() string
	// TargetKind is the target's own classification, compared against the
	// hero class when electing the primary result.
	TargetKind() string
	SetPrimary(JobResult)
	AddSupporting(JobResult)
}

// Project merges successful results into their targets in place. Matches for
// a target keep result input order; a hero-kind target prefers a
// hero-classified result for the primary slot, any other target takes its
// first match. Every remaining match is attached as supporting. Failed
// results and targets with no matches are left alone; fallbacks are the
// caller's concern.
func Project(targets []ProjectionTarget, results []JobResult) {
	groups := make(map[string][]JobResult, len(targets))
	for _, res := range results {
		if !res.Success() {
			continue
		}
		groups[res.Key] = append(groups[res.Key], res)
	}

	for _, target := range targets {
		group := groups[target.TargetKey()]
		if len(group) == 0 {
			continue
		}

		primary := 0
		if target.TargetKind() == string(ClassHero) {
			for i, res := range group {
				if res.Class == ClassHero {
					primary = i
					break
				}
			}
		}

		target.SetPrimary(group[primary])
		for i, res := range group {
			if i != primary {
				target.AddSupporting(res)
			}
		}
	}
}
