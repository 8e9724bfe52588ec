package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/history"
	"github.com/pengelbrecht/calc/internal/mcptools"
)

func newMCPCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve calculator tools over MCP (stdio)",
		Long: `Serve add, subtract, multiply, divide and evaluate as Model Context
Protocol tools on stdin/stdout. Logs go to stderr.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withHistory(func(store *history.Store) error {
				srv := mcptools.NewServer(Version, opts.calc,
					mcptools.WithLogger(opts.logger),
					mcptools.WithRecorder(opts.recorder(cmd.Context(), store, "mcp", opts.calc.Mode)),
				)
				opts.logger.Info("starting MCP server", "version", Version)
				return srv.ServeStdio()
			})
		},
	}
}
