package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPlannerMCPServer creates an MCP server with the 3 planning tools
// registered: plan_waves, validate_graph, and estimate_savings.
func NewPlannerMCPServer() *mcp.Server {
	svc := NewPlannerService()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "siteforge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan_waves",
		Description: "Partition a phase dependency graph into waves. Phases in the same wave are mutually independent and safe to run concurrently.",
	}, svc.PlanWaves)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_graph",
		Description: "Check a phase dependency graph for duplicate ids, unknown or self references, and cycles, without executing anything.",
	}, svc.ValidateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "estimate_savings",
		Description: "Estimate how many scheduling steps wave execution saves over running every phase back to back, assuming uniform phase duration.",
	}, svc.EstimateSavings)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts an HTTP server exposing the planning tools.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
