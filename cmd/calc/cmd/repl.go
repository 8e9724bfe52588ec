package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/history"
	"github.com/pengelbrecht/calc/internal/tui"
)

func newReplCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "repl",
		Aliases: []string{"tui"},
		Short:   "Interactive calculator",
		Long:    `Start an interactive calculator. Type "<a> <op> <b>" and press enter; esc quits.`,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withHistory(func(store *history.Store) error {
				return tui.Run(opts.calc, opts.format, opts.recorder(cmd.Context(), store, "repl", opts.calc.Mode))
			})
		},
	}
}
