// ABOUTME: MCP tool definitions and registration for the routegen server
// ABOUTME: Exposes generate, diff, and route listing to LLM agents over stdio
package mcp

import (
	"github.com/harper/routegen/internal/runner"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, r *runner.Runner) *Handlers {
	handlers := NewHandlers(r)

	// 1. generate_localized_routes - run one generation pass
	server.AddTool(mcp.Tool{
		Name:        "generate_localized_routes",
		Description: "Run one localization pass: write localized route files that are new or whose origin changed, and delete stale ones.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"manifest": map[string]interface{}{
					"type":        "string",
					"description": "Route manifest path (default: configured manifest)",
				},
				"updated_path": map[string]interface{}{
					"type":        "string",
					"description": "Origin route that changed; omit for a full regeneration",
				},
				"dry_run": map[string]interface{}{
					"type":        "boolean",
					"description": "Report what would change without writing (default: false)",
					"default":     false,
				},
			},
		},
	}, handlers.GenerateLocalizedRoutes)

	// 2. diff_localized_routes - compare the manifest against the last pass
	server.AddTool(mcp.Tool{
		Name:        "diff_localized_routes",
		Description: "List localized paths the manifest adds or removes relative to the last completed pass.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"manifest": map[string]interface{}{
					"type":        "string",
					"description": "Route manifest path (default: configured manifest)",
				},
			},
		},
	}, handlers.DiffLocalizedRoutes)

	// 3. list_origin_routes - show the snapshot of the last pass
	server.AddTool(mcp.Tool{
		Name:        "list_origin_routes",
		Description: "List the origin routes and localized paths recorded by the last pass.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListOriginRoutes)

	return handlers
}
