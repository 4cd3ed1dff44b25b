package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/mcp"
)

type mcpFlags struct {
	transport string
	port      int
	token     string
}

func newMCPCmd() *cobra.Command {
	flags := &mcpFlags{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Serve the Model Context Protocol so AI agents can list repositories, inspect
clones and run syncs. The stdio transport keeps stdout for the protocol; all
logging goes to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.transport, "transport", "t", mcp.TransportStdio, "Transport type (stdio, http)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 3000, "Port for the HTTP transport")
	cmd.Flags().StringVar(&flags.token, "auth-token", "", "Bearer token required by the HTTP transport")

	return cmd
}

func runMCP(cmd *cobra.Command, flags *mcpFlags) error {
	c, err := newContainer(cmd)
	if err != nil {
		return err
	}

	var httpConfig *mcp.HTTPConfig
	if flags.transport == mcp.TransportHTTP {
		httpConfig = &mcp.HTTPConfig{Port: flags.port, BearerToken: flags.token}
	}

	server, err := mcp.NewServer(c, Version, flags.transport, httpConfig)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Logger.Info("starting MCP server", "transport", flags.transport, "root", c.Root, "config", c.ConfigManager.GetConfigPath())

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	c.Logger.Info("MCP server stopped")
	return nil
}
