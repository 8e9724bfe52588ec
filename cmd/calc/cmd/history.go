package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/history"
	"github.com/pengelbrecht/calc/internal/numfmt"
)

type historyOptions struct {
	limit int
	clear bool
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	hopts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent evaluations",
		Long: `Show recent evaluations, newest first.

History is stored in .calc/history.db unless "history.path" is set in the
config file. Set "history.enabled" to false to stop recording.

Examples:
  # Show the last 20 evaluations
  calc history

  # Show the last 5 as JSON
  calc history --limit 5 --json

  # Delete all history
  calc history --clear`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, hopts)
		},
	}

	cmd.Flags().IntVarP(&hopts.limit, "limit", "n", 0, "number of entries (default from config)")
	cmd.Flags().BoolVar(&hopts.clear, "clear", false, "delete all history")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *rootOptions, hopts *historyOptions) error {
	store, err := opts.openHistory()
	if err != nil {
		return err
	}
	if store == nil {
		return usageError(errors.New("history is disabled in config"))
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if hopts.clear {
		n, err := store.Clear(ctx)
		if err != nil {
			return err
		}
		if opts.json {
			return json.NewEncoder(out).Encode(map[string]int64{"cleared": n})
		}
		fmt.Fprintf(out, "Cleared %d entries\n", n)
		return nil
	}

	limit := hopts.limit
	if limit <= 0 {
		limit = opts.cfg.History.GetLimit()
	}

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if opts.json {
		if entries == nil {
			entries = []history.Entry{}
		}
		enc := json.NewEncoder(out)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}

	renderHistory(out, entries, opts.format, time.Local)
	return nil
}

// renderHistory writes one line per entry.
func renderHistory(w io.Writer, entries []history.Entry, format numfmt.Formatter, loc *time.Location) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history")
		return
	}
	for _, e := range entries {
		stamp := e.CreatedAt.In(loc).Format("2006-01-02 15:04:05")
		if e.Result == nil {
			fmt.Fprintf(w, "%s  %s  error: %s\n", stamp, e.Expr(), e.Err)
			continue
		}
		fmt.Fprintf(w, "%s  %s = %s\n", stamp, e.Expr(), format.Int(*e.Result))
	}
}
