package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/chartdesk/internal/app"
	"github.com/newthinker/chartdesk/internal/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analysis tools over MCP on stdio",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.Build(cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	defer a.Close()

	// stdout carries the protocol; logs go to the configured file or stderr.
	return mcptools.ServeStdio(mcptools.NewServer(a, Version, log))
}
