package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/batch"
	"github.com/pengelbrecht/calc/internal/calculator"
	"github.com/pengelbrecht/calc/internal/history"
)

func newBatchCommand(opts *rootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "batch <job.yaml>",
		Short: "Evaluate every step of a YAML job file",
		Long: `Evaluate every step of a YAML job file and print a YAML report.

Each step is evaluated independently; failed steps are reported and the
command exits 1 if any step failed.

Job file:
  name: totals
  mode: checked     # optional, overrides --overflow
  steps:
    - op: add
      a: 10
      b: 10
    - expr: "10 / 0"

Examples:
  calc batch job.yaml
  calc batch job.yaml --out report.yaml
  calc batch job.yaml --json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := batch.ParseFile(args[0])
			if err != nil {
				return usageError(err)
			}

			var report batch.Report
			_ = opts.withHistory(func(store *history.Store) error {
				report = runJob(cmd.Context(), opts, store, job, "batch")
				return nil
			})

			render := func(w io.Writer) error {
				if opts.json {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					if err := enc.Encode(report); err != nil {
						return fmt.Errorf("failed to encode json: %w", err)
					}
					return nil
				}
				return batch.WriteReport(w, report)
			}

			if outPath != "" {
				if err := writeFile(outPath, render); err != nil {
					return err
				}
			} else if err := render(cmd.OutOrStdout()); err != nil {
				return err
			}

			if failed := report.Failed(); failed > 0 {
				return failure(fmt.Errorf("%d of %d steps failed", failed, len(report.Results)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the report to a file")

	return cmd
}

// runJob evaluates job and records every step that parsed.
func runJob(ctx context.Context, opts *rootOptions, store *history.Store, job batch.Job, source string) batch.Report {
	report := batch.Run(opts.calc, job)

	mode, err := calculator.ParseMode(report.Mode)
	if err != nil {
		mode = opts.calc.Mode
	}
	record := opts.recorder(ctx, store, source, mode)
	for _, res := range report.Results {
		expr, ok := res.Parsed()
		if !ok {
			continue
		}
		value := 0
		if res.Result != nil {
			value = *res.Result
		}
		record(expr, value, res.Err())
	}

	opts.logger.Debug("batch finished", "job", report.JobID, "steps", len(report.Results), "failed", report.Failed())
	return report
}

// writeFile creates path and fills it with write. A failed close is reported
// like a failed write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
