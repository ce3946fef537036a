package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/framehaus/siteforge/internal/mcptools"
)

// version is set by goreleaser at build time.
var version = "dev"

const usage = `siteforge generates a site's copy and assets from a YAML plan.

Usage:
  siteforge init [--force] [dir]   write starter siteforge.yml and site.yml
  siteforge plan [flags]           show the wave plan for a site file
  siteforge run [flags]            execute a full generation run
  siteforge version                print version and exit

Flags:
  --serve-mcp               run as MCP server on stdio
  --serve-mcp-http <addr>   run as MCP server over HTTP on addr

Run 'siteforge <command> -h' for command flags.`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("siteforge", flag.ContinueOnError)
	serveMCP := fs.Bool("serve-mcp", false, "run as MCP server on stdio")
	serveMCPHTTP := fs.String("serve-mcp-http", "", "run as MCP server over HTTP on the given address")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, usage) }

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println(version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveMCP {
		return mcptools.RunStdio(ctx, mcptools.NewPlannerMCPServer())
	}
	if *serveMCPHTTP != "" {
		return mcptools.RunHTTP(ctx, mcptools.NewPlannerMCPServer(), *serveMCPHTTP)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return nil
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "init":
		return runInit(cmdArgs)
	case "plan":
		return runPlan(cmdArgs)
	case "run":
		return runGenerate(ctx, cmdArgs)
	case "version":
		fmt.Println(version)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}
