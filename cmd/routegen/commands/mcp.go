// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets agents run generation passes over stdio
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/routegen/internal/mcp"
)

var mcpSite siteFlags

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs routegen as an MCP (Model Context Protocol) server so an agent
editing the origin tree can regenerate, diff, and inspect the localized
tree via stdio. The snapshot is kept for the life of the server and
saved to the configured backend after every pass.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by the agent host)
  routegen mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "routegen": {
  #       "command": "routegen",
  #       "args": ["mcp", "--manifest", "routes.yaml"]
  #     }
  #   }
  # }`,
	}

	mcpSite.register(cmd)

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	r, store, err := mcpSite.openRunner()
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer("routegen", versionInfo.Version)
	handlers := mcp.RegisterTools(server, r)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("MCP server starting on stdio", "tree", r.Tree())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received")

		// Let an in-flight pass save its snapshot before the store goes away
		handlers.Shutdown()
		if err := store.Close(); err != nil {
			log.Warnw("error closing snapshot store", "error", err)
		}
		log.Infow("shutdown complete")

	case err := <-serverErr:
		handlers.Shutdown()
		if cerr := store.Close(); cerr != nil {
			log.Warnw("error closing snapshot store", "error", cerr)
		}
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
