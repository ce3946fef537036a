package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/framehaus/siteforge/internal/artifact"
	"github.com/framehaus/siteforge/internal/config"
	"github.com/framehaus/siteforge/internal/engine"
	"github.com/framehaus/siteforge/internal/pipeline"
	"github.com/framehaus/siteforge/internal/provider"
	"github.com/framehaus/siteforge/internal/site"
	"github.com/framehaus/siteforge/internal/status"
)

// runGenerate executes the full generation pipeline for a site plan.
func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	sitePath := fs.String("site", "site.yml", "path to the site plan")
	configDir := fs.String("config-dir", ".", "directory holding siteforge.yml")
	verbose := fs.Bool("verbose", false, "log retries and failed phases")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		return err
	}
	if *verbose {
		cfg.Verbose = true
	}

	plan, err := site.FromFile(*sitePath)
	if err != nil {
		return fmt.Errorf("load site plan: %w", err)
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(pipelineConfig(cfg), client, store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range p.Progress() {
			fmt.Println(engine.FormatProgress(ev))
		}
	}()

	result, runErr := p.Run(ctx, plan)
	p.Close()
	<-done
	if runErr != nil {
		return runErr
	}

	printReport(status.BuildReport(result))
	return nil
}

func buildClient(cfg *config.Config) (provider.Client, error) {
	if cfg.Provider.BaseURL == "" {
		return nil, fmt.Errorf("provider.baseUrl is required (set it in siteforge.yml)")
	}

	key := cfg.Provider.APIKey
	if key == "" {
		key = os.Getenv("SITEFORGE_API_KEY")
	}

	opts := []provider.ClientOption{provider.WithAPIKey(key)}
	if cfg.Provider.TimeoutSeconds > 0 {
		opts = append(opts, provider.WithTimeout(time.Duration(cfg.Provider.TimeoutSeconds)*time.Second))
	}
	return provider.NewHTTPClient(cfg.Provider.BaseURL, opts...), nil
}

// openStore picks the artifact backend. An empty path keeps everything in
// memory for the run; otherwise artifacts land in a SQLite file.
func openStore(path string) (artifact.Store, error) {
	if path == "" {
		return artifact.NewMemStore(), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open artifact store: %w", err)
		}
	}
	store, err := artifact.OpenSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	return store, nil
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	pc := pipeline.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		RetryBudget:   cfg.RetryBudget,
		BatchPause:    time.Duration(cfg.BatchPauseMs) * time.Millisecond,
		PhaseBudget:   cfg.PhaseBudget,
		Verbose:       cfg.Verbose,
	}
	if cfg.BackoffMs > 0 {
		retry := engine.DefaultRetryPolicy()
		retry.Base = time.Duration(cfg.BackoffMs) * time.Millisecond
		pc.Retry = retry
	}
	return pc
}

func printReport(report *status.Report) {
	fmt.Printf("\nRun %s finished in state %s, %d waves.\n\n", report.RunID, report.State, report.Waves)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Wave", "Phase", "Outcome", "Detail"})
	for _, p := range report.Phases {
		tw.AppendRow(table.Row{p.Wave, p.ID, p.Outcome, p.Detail})
	}
	tw.Render()

	fmt.Println()

	tw = table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Section", "Kind", "Copy", "Primary", "Supporting"})
	for _, s := range report.Sections {
		copyCell := "-"
		if s.HasCopy {
			copyCell = "yes"
		}
		primary := s.Primary
		if primary == "" {
			primary = "-"
		}
		tw.AppendRow(table.Row{s.Key, s.Kind, copyCell, primary, s.Supporting})
	}
	tw.Render()

	fmt.Printf("\nAssets: %d total, %d succeeded, %d failed, %d retried, %d stored.\n",
		report.Jobs.Total, report.Jobs.Succeeded, report.Jobs.Failed, report.Jobs.Retried, report.Jobs.Persisted)
}
