package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driving/mcp"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
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

The server exposes two tools, ask and retrieve, and the resources
trading://videos and trading://videos/{videoId}/chunks.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, and --metrics-addr to serve
Prometheus metrics while the server runs.

Examples:
  # Stdio mode (default, for Claude Desktop)
  trading-nlp mcp serve

  # HTTP mode with metrics
  trading-nlp mcp serve --port 8080 --metrics-addr :9090

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "trading-nlp": {
        "command": "/path/to/trading-nlp",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("metrics-addr", "", "address to serve /metrics on (empty = disabled)")
	needsServices(mcpServeCmd)
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("getting metrics-addr flag: %w", err)
	}

	ports := &mcp.Ports{
		Query:  queryService,
		Ledger: ledgerStore,
		Chunks: chunkStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if metricsAddr != "" {
		if appMetrics == nil {
			return errors.New("metrics not configured")
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", appMetrics.Handler())
		go func() {
			if err := mcp.ListenAndServe(ctx, metricsAddr, mux); err != nil {
				logger.Error("metrics server: %v", err)
			}
		}()
		// Stderr, since stdout carries the stdio transport.
		fmt.Fprintf(cmd.ErrOrStderr(), "Metrics available on http://%s/metrics\n", metricsAddr)
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
