package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/framehaus/siteforge/internal/engine"
	"github.com/framehaus/siteforge/internal/provider"
	"github.com/framehaus/siteforge/internal/site"
)

// Phase ids. Copy phases are keyed per section ("copy/hero").
const (
	phasePalette    = "palette"
	phaseAssetPlan  = "plan-assets"
	copyPhasePrefix = "copy/"
)

// Config tunes one generation run.
type Config struct {
	// MaxConcurrent caps in-flight asset jobs (batch width).
	MaxConcurrent int
	// RetryBudget is the attempts allowed per asset job.
	RetryBudget int
	// Retry schedules backoff between attempts.
	Retry engine.RetryPolicy
	// BatchPause separates consecutive asset batches.
	BatchPause time.Duration
	// PhaseBudget, when positive, runs the phase graph on the budgeted
	// graph executor instead of wave barriers. Recommended for wide plans.
	PhaseBudget int
	// Verbose enables diagnostic logging.
	Verbose bool
}

// Result is everything a completed run produced.
type Result struct {
	Run      *engine.Run
	Sections []*site.Section
	Phases   map[string]engine.PhaseResult
	Jobs     []engine.JobResult
	Waves    [][]string
}

// Pipeline drives a site plan through a full generation run: design phases
// first (palette, copy briefs, asset planning), then the asset jobs in
// bounded batches, then projection of the results onto the sections.
type Pipeline struct {
	cfg      Config
	client   provider.Client
	store    engine.Persister
	progress *engine.ProgressReporter
}

// New creates a Pipeline. store may be nil to skip artifact persistence.
func New(cfg Config, client provider.Client, store engine.Persister) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		client:   client,
		store:    store,
		progress: engine.NewProgressReporter(),
	}
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan engine.ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when
// the pipeline is no longer needed.
func (p *Pipeline) Close() {
	p.progress.Close()
}

// Run executes the full generation run for plan. Individual phase and job
// failures are recorded in the result; the error is non-nil when the run as
// a whole cannot proceed (invalid plan, failed asset planning, cancellation).
func (p *Pipeline) Run(ctx context.Context, plan *site.Plan) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid plan: %w", err)
	}

	run := engine.NewRun()
	draft := &runDraft{}
	phases := p.bindPhases(plan, draft)

	waves, err := engine.PlanWaves(phases)
	if err != nil {
		return nil, fmt.Errorf("pipeline: plan phases: %w", err)
	}
	if err := run.Advance(engine.RunScheduled); err != nil {
		return nil, err
	}

	p.progress.Emit(engine.ProgressEvent{
		Stage:   "run",
		Message: fmt.Sprintf("%s: %d phases in %d waves", plan.Site.Name, len(phases), len(waves)),
	})

	if err := run.Advance(engine.RunExecuting); err != nil {
		return nil, err
	}
	phaseResults, err := p.runPhases(ctx, phases)
	if err != nil {
		return nil, fmt.Errorf("pipeline: run phases: %w", err)
	}
	if p.cfg.Verbose {
		for id, res := range phaseResults {
			if !res.Success() {
				log.Printf("WARNING: phase %s did not succeed: %v", id, res.Err)
			}
		}
	}

	sections := site.BuildSections(plan)
	applyCopy(sections, phaseResults)

	planRes := phaseResults[phaseAssetPlan]
	if !planRes.Success() {
		return nil, fmt.Errorf("pipeline: asset planning failed: %w", planRes.Err)
	}
	jobs, ok := planRes.Value.([]engine.Job)
	if !ok {
		return nil, fmt.Errorf("pipeline: asset planning produced %T, want job list", planRes.Value)
	}

	executor := engine.NewBoundedBatchExecutor(engine.Config{
		MaxConcurrent: p.cfg.MaxConcurrent,
		RetryBudget:   p.cfg.RetryBudget,
		Retry:         p.cfg.Retry,
		BatchPause:    p.cfg.BatchPause,
		Stage:         "assets",
		Persister:     p.store,
		OnProgress:    p.progress.Emit,
		Verbose:       p.cfg.Verbose,
	})
	jobResults, err := executor.Execute(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: run assets: %w", err)
	}

	engine.Project(site.Targets(sections), jobResults)
	if err := run.Advance(engine.RunProjected); err != nil {
		return nil, err
	}
	if err := run.Advance(engine.RunDone); err != nil {
		return nil, err
	}

	p.progress.Emit(engine.ProgressEvent{
		Stage:    "run",
		Progress: 100,
		Message:  "run complete",
	})

	return &Result{
		Run:      run,
		Sections: sections,
		Phases:   phaseResults,
		Jobs:     jobResults,
		Waves:    waves,
	}, nil
}

func (p *Pipeline) runPhases(ctx context.Context, phases []engine.Phase) (map[string]engine.PhaseResult, error) {
	if p.cfg.PhaseBudget > 0 {
		return engine.NewGraphExecutor(p.cfg.PhaseBudget, p.progress.Emit).Execute(ctx, phases)
	}
	return engine.NewWaveScheduler(p.progress.Emit).Execute(ctx, phases)
}

// --- Phase graph ---

// PhaseGraph returns the phase graph a plan executes, without work bound.
// Planning surfaces (the plan command, exports, MCP tools) share it with the
// pipeline so the published plan always matches what a run would do.
func PhaseGraph(plan *site.Plan) []engine.Phase {
	phases := []engine.Phase{{ID: phasePalette}}
	for _, spec := range plan.Sections {
		if spec.Copy == "" {
			phases = append(phases, engine.Phase{
				ID:        copyPhaseID(spec.Key),
				DependsOn: []string{phasePalette},
			})
		}
	}
	phases = append(phases, engine.Phase{
		ID:        phaseAssetPlan,
		DependsOn: []string{phasePalette},
	})
	return phases
}

func copyPhaseID(key string) string { return copyPhasePrefix + key }

// runDraft carries values produced by early phases into their dependents.
// The scheduler settles a phase before launching anything that depends on
// it, which orders the write against the reads.
type runDraft struct {
	palette string
}

// bindPhases attaches work functions to the plan's phase graph.
func (p *Pipeline) bindPhases(plan *site.Plan, draft *runDraft) []engine.Phase {
	specs := make(map[string]site.SectionSpec, len(plan.Sections))
	for _, spec := range plan.Sections {
		specs[spec.Key] = spec
	}

	phases := PhaseGraph(plan)
	for i := range phases {
		switch {
		case phases[i].ID == phasePalette:
			phases[i].Work = p.paletteWork(plan, draft)
		case phases[i].ID == phaseAssetPlan:
			phases[i].Work = p.assetPlanWork(plan, draft)
		default:
			key := strings.TrimPrefix(phases[i].ID, copyPhasePrefix)
			phases[i].Work = p.copyWork(plan, specs[key], draft)
		}
	}
	return phases
}

// paletteWork generates the shared design direction every downstream prompt
// builds on.
func (p *Pipeline) paletteWork(plan *site.Plan, draft *runDraft) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		gen, err := p.client.Generate(ctx, provider.GenerateRequest{
			Kind:   "palette",
			Prompt: palettePrompt(plan),
			Style:  plan.Site.Style,
		})
		if err != nil {
			return nil, err
		}
		draft.palette = gen.Text
		return gen.Text, nil
	}
}

// copyWork generates the copy for one section.
func (p *Pipeline) copyWork(plan *site.Plan, spec site.SectionSpec, draft *runDraft) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		gen, err := p.client.Generate(ctx, provider.GenerateRequest{
			Kind:   "copy",
			Prompt: copyPrompt(plan, spec, draft.palette),
			Style:  plan.Site.Style,
		})
		if err != nil {
			return nil, err
		}
		return gen.Text, nil
	}
}

// assetPlanWork turns the plan's asset specs into the job list for the batch
// stage, hero first, with the palette baked into every prompt.
func (p *Pipeline) assetPlanWork(plan *site.Plan, draft *runDraft) func(context.Context) (any, error) {
	return func(_ context.Context) (any, error) {
		var jobs []engine.Job
		for _, spec := range plan.Sections {
			for _, a := range spec.Assets {
				jobs = append(jobs, engine.Job{
					Key:     spec.Key,
					Class:   a.Class,
					Payload: a.Prompt,
					Work:    p.assetWork(plan.Site.Style, assetPrompt(a, draft.palette), a.Class),
				})
			}
		}
		engine.SortJobs(jobs)
		return jobs, nil
	}
}

// assetWork generates one asset.
func (p *Pipeline) assetWork(style, prompt string, class engine.PriorityClass) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		gen, err := p.client.Generate(ctx, provider.GenerateRequest{
			Kind:   "image",
			Prompt: prompt,
			Style:  style,
			Size:   assetSize(class),
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}

// --- Helpers ---

// applyCopy fills section copy from the successful copy phases. Sections
// whose copy phase failed keep whatever the plan declared.
func applyCopy(sections []*site.Section, results map[string]engine.PhaseResult) {
	for _, s := range sections {
		res, ok := results[copyPhaseID(s.Key)]
		if !ok || !res.Success() {
			continue
		}
		if text, ok := res.Value.(string); ok {
			s.Copy = text
		}
	}
}

func assetSize(class engine.PriorityClass) string {
	if class == engine.ClassHero {
		return "1536x640"
	}
	return "1024x1024"
}

func palettePrompt(plan *site.Plan) string {
	return fmt.Sprintf("Define a color palette and typography direction for %s. Brand: %s.",
		plan.Site.Name, plan.Site.Brand)
}

func copyPrompt(plan *site.Plan, spec site.SectionSpec, palette string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %s section for %s.", spec.Kind, plan.Site.Name)
	if spec.Heading != "" {
		fmt.Fprintf(&b, " Heading: %s.", spec.Heading)
	}
	if plan.Site.Brand != "" {
		fmt.Fprintf(&b, " Brand: %s.", plan.Site.Brand)
	}
	if palette != "" {
		fmt.Fprintf(&b, "\n\nDesign direction:\n%s", palette)
	}
	return b.String()
}

func assetPrompt(a site.AssetSpec, palette string) string {
	if palette == "" {
		return a.Prompt
	}
	return fmt.Sprintf("%s\n\nDesign direction:\n%s", a.Prompt, palette)
}
