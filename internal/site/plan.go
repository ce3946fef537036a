package site

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/framehaus/siteforge/internal/engine"
)

// Plan models a site plan file (site.yml): the site identity plus the
// sections to generate.
type Plan struct {
	Site     SiteSpec      `yaml:"site"`
	Sections []SectionSpec `yaml:"sections"`
}

// SiteSpec describes the site being generated.
type SiteSpec struct {
	Name  string `yaml:"name"`
	Brand string `yaml:"brand"` // one-line brand summary fed to prompts
	Style string `yaml:"style"` // visual direction (e.g. "minimal, warm")
}

// SectionSpec declares one page section and the assets it needs.
type SectionSpec struct {
	Key     string      `yaml:"key"`
	Kind    string      `yaml:"kind"` // hero, about, features, ...
	Heading string      `yaml:"heading"`
	Copy    string      `yaml:"copy"` // empty means "generate it"
	Assets  []AssetSpec `yaml:"assets"`
}

// AssetSpec declares one asset to generate for a section. An empty class
// defaults to supporting.
type AssetSpec struct {
	Class  engine.PriorityClass `yaml:"class"`
	Prompt string               `yaml:"prompt"`
}

// FromYAML parses and validates a plan from raw YAML bytes.
func FromYAML(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid site plan yaml: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// FromFile reads a plan from the given path.
func FromFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

func (p *Plan) applyDefaults() {
	for i := range p.Sections {
		for j := range p.Sections[i].Assets {
			if p.Sections[i].Assets[j].Class == "" {
				p.Sections[i].Assets[j].Class = engine.ClassSupporting
			}
		}
	}
}

// Validate ensures the plan meets required structure.
func (p *Plan) Validate() error {
	if p.Site.Name == "" {
		return fmt.Errorf("site.name is required")
	}
	if len(p.Sections) == 0 {
		return fmt.Errorf("plan has no sections")
	}
	seen := make(map[string]bool, len(p.Sections))
	for i, s := range p.Sections {
		if s.Key == "" {
			return fmt.Errorf("section %d has empty key", i)
		}
		if seen[s.Key] {
			return fmt.Errorf("duplicate section key %s", s.Key)
		}
		seen[s.Key] = true
		if s.Kind == "" {
			return fmt.Errorf("section %s has empty kind", s.Key)
		}
		for j, a := range s.Assets {
			if a.Prompt == "" {
				return fmt.Errorf("section %s asset %d has empty prompt", s.Key, j)
			}
		}
	}
	return nil
}
