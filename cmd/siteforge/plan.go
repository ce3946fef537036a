package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/framehaus/siteforge/internal/engine"
	"github.com/framehaus/siteforge/internal/export"
	"github.com/framehaus/siteforge/internal/pipeline"
	"github.com/framehaus/siteforge/internal/site"
)

// runPlan shows the wave plan for a site file without executing anything.
func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	sitePath := fs.String("site", "site.yml", "path to the site plan")
	format := fs.String("format", "table", "output format: table, json, or mermaid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plan, err := site.FromFile(*sitePath)
	if err != nil {
		return fmt.Errorf("load site plan: %w", err)
	}

	phases := pipeline.PhaseGraph(plan)

	switch *format {
	case "table":
		return printPlanTable(plan.Site.Name, phases)
	case "json":
		return printPlanJSON(plan.Site.Name, phases)
	case "mermaid":
		out, err := export.Mermaid(phases)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json, or mermaid)", *format)
	}
}

func printPlanTable(name string, phases []engine.Phase) error {
	exp, err := export.ExportPlan(name, phases)
	if err != nil {
		return err
	}

	rows := make([]export.PhaseExport, len(exp.Phases))
	copy(rows, exp.Phases)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Wave != rows[j].Wave {
			return rows[i].Wave < rows[j].Wave
		}
		return rows[i].ID < rows[j].ID
	})

	fmt.Printf("Plan for %s\n\n", name)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Wave", "Phase", "Depends on"})
	for _, p := range rows {
		tw.AppendRow(table.Row{p.Wave, p.ID, strings.Join(p.DependsOn, ", ")})
	}
	tw.Render()

	fmt.Printf("\n%d phases in %d waves, about %d%% faster than running them back to back.\n",
		exp.Savings.SequentialSteps, exp.Savings.ParallelSteps, exp.Savings.SavingsPercent)
	return nil
}

func printPlanJSON(name string, phases []engine.Phase) error {
	exp, err := export.ExportPlan(name, phases)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
