package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/athena/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead. In HTTP mode Prometheus
metrics are also served at /metrics.

Tools:
  search_policies - reranked chunks for a query
  policy_context  - cited context for a question (qa or summary mode)
  ingest_status   - tracked documents and their status

Examples:
  # Stdio mode (default)
  athena mcp serve

  # HTTP mode
  athena mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Ingest:    ingestService,
		Metrics:   metricsHandler,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}
