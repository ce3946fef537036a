package site

import "github.com/framehaus/siteforge/internal/engine"

// Asset is one generated artifact attached to a section.
type Asset struct {
	Class engine.PriorityClass
	Ref   string // persisted artifact reference, empty if not stored
	Data  any    // produced value (provider response)
}

// Section is the runtime counterpart of a SectionSpec. It collects the
// generated copy and assets for one part of the page.
type Section struct {
	Key        string
	Kind       string
	Heading    string
	Copy       string
	Primary    *Asset
	Supporting []Asset
}

var _ engine.ProjectionTarget = (*Section)(nil)

// NewSection builds a runtime section from its spec.
func NewSection(spec SectionSpec) *Section {
	return &Section{
		Key:     spec.Key,
		Kind:    spec.Kind,
		Heading: spec.Heading,
		Copy:    spec.Copy,
	}
}

// BuildSections builds runtime sections for every section in the plan,
// preserving plan order.
func BuildSections(p *Plan) []*Section {
	sections := make([]*Section, 0, len(p.Sections))
	for _, spec := range p.Sections {
		sections = append(sections, NewSection(spec))
	}
	return sections
}

// Targets adapts sections for result projection.
func Targets(sections []*Section) []engine.ProjectionTarget {
	targets := make([]engine.ProjectionTarget, len(sections))
	for i, s := range sections {
		targets[i] = s
	}
	return targets
}

func (s *Section) TargetKey() string  { return s.Key }
func (s *Section) TargetKind() string { return s.Kind }

func (s *Section) SetPrimary(res engine.JobResult) {
	s.Primary = &Asset{Class: res.Class, Ref: res.Ref, Data: res.Value}
}

func (s *Section) AddSupporting(res engine.JobResult) {
	s.Supporting = append(s.Supporting, Asset{Class: res.Class, Ref: res.Ref, Data: res.Value})
}
