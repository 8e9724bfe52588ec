package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/batch"
	"github.com/pengelbrecht/calc/internal/history"
	"github.com/pengelbrecht/calc/internal/inbox"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Evaluate job files dropped into a directory",
		Long: `Watch a directory for YAML job files (see "calc batch --help").

Every *.yaml or *.yml file that is created or rewritten is evaluated and its
report is written next to it as <name>.result.yaml. Files already present
when the watch starts are processed first. Stop with Ctrl-C.

Examples:
  calc watch ./inbox`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withHistory(func(store *history.Store) error {
				return runWatch(cmd.Context(), cmd, opts, store, args[0])
			})
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *rootOptions, store *history.Store, dir string) error {
	w := inbox.New(dir, inbox.WithLogger(opts.logger))
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer w.Stop()

	pending, err := w.Pending()
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s\n", dir)

	for _, ev := range pending {
		processJobFile(ctx, out, opts, store, ev)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			processJobFile(ctx, out, opts, store, ev)
		}
	}
}

// processJobFile evaluates one job file and writes its result file.
// Problems are reported to out and do not stop the watch.
func processJobFile(ctx context.Context, out io.Writer, opts *rootOptions, store *history.Store, ev inbox.Event) {
	job, err := batch.ParseFile(ev.Path)
	if err != nil {
		opts.logger.Warn("skip job file", "file", ev.Name, "error", err)
		fmt.Fprintf(out, "%s: %v\n", ev.Name, err)
		return
	}

	report := runJob(ctx, opts, store, job, "watch:"+ev.Name)

	resultPath := inbox.ResultPath(ev.Path)
	if err := writeFile(resultPath, func(w io.Writer) error {
		return batch.WriteReport(w, report)
	}); err != nil {
		opts.logger.Warn("write result", "file", resultPath, "error", err)
		fmt.Fprintf(out, "%s: %v\n", ev.Name, err)
		return
	}

	fmt.Fprintf(out, "%s: %d steps, %d failed\n", ev.Name, len(report.Results), report.Failed())
}
