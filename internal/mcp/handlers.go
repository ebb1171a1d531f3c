// ABOUTME: MCP tool handler implementations for the routegen server
// ABOUTME: Serializes passes so concurrent tool calls never race on the snapshot
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/harper/routegen/internal/core"
	"github.com/harper/routegen/internal/runner"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	runner *runner.Runner
	mu     sync.Mutex // one pass at a time
	closed bool
}

// NewHandlers creates handlers over a runner
func NewHandlers(r *runner.Runner) *Handlers {
	return &Handlers{runner: r}
}

// errShuttingDown is reported for tool calls arriving after Shutdown
const errShuttingDown = "server is shutting down"

// Shutdown waits for the running pass, if any, and rejects later tool calls.
// The snapshot store may be closed once it returns.
func (h *Handlers) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

// GenerateLocalizedRoutes handles the generate_localized_routes tool
func (h *Handlers) GenerateLocalizedRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	manifestPath := request.GetString("manifest", "")
	updated := request.GetString("updated_path", "")
	dryRun := request.GetBool("dry_run", false)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return mcp.NewToolResultError(errShuttingDown), nil
	}

	var (
		report *core.PassReport
		err    error
	)
	if dryRun {
		report, err = h.runner.Plan(manifestPath, updated)
	} else {
		report, err = h.runner.Generate(ctx, manifestPath, updated)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	return jsonResult(report)
}

// DiffLocalizedRoutes handles the diff_localized_routes tool
func (h *Handlers) DiffLocalizedRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	manifestPath := request.GetString("manifest", "")

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return mcp.NewToolResultError(errShuttingDown), nil
	}

	report, err := h.runner.Plan(manifestPath, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diff failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"new_paths":     report.NewPaths,
		"removed_paths": report.RemovedPaths,
	})
}

// ListOriginRoutes handles the list_origin_routes tool
func (h *Handlers) ListOriginRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return mcp.NewToolResultError(errShuttingDown), nil
	}
	routes := h.runner.Previous()
	h.mu.Unlock()

	return jsonResult(map[string]interface{}{
		"tree":   h.runner.Tree(),
		"count":  len(routes),
		"routes": routes,
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
