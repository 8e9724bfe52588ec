// Package cmd implements the calc command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/calculator"
	"github.com/pengelbrecht/calc/internal/config"
	"github.com/pengelbrecht/calc/internal/history"
	"github.com/pengelbrecht/calc/internal/logging"
	"github.com/pengelbrecht/calc/internal/numfmt"
)

// Version is set during build.
var Version = "dev"

// DefaultConfigPath is where config is read from unless --config is given.
var DefaultConfigPath = filepath.Join(".calc", "config.json")

// rootOptions holds global flags and the state derived from them.
type rootOptions struct {
	configPath string
	overflow   string
	json       bool
	verbose    bool

	cfg    config.Config
	calc   calculator.Calculator
	format numfmt.Formatter
	logger *slog.Logger
}

// NewRootCommand creates the calc command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Integer calculator",
		Long: `calc evaluates integer arithmetic: add, subtract, multiply and divide.

Division truncates toward zero. Dividing by zero is an error (exit code 1).
By default add, subtract and multiply wrap on overflow; use --overflow checked
(or "overflow": "checked" in .calc/config.json, or CALC_OVERFLOW=checked)
to make overflow an error instead.

Operands starting with "-" must follow "--":
  calc add -- -5 3`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", DefaultConfigPath, "config file")
	cmd.PersistentFlags().StringVar(&opts.overflow, "overflow", "", "overflow mode (wrap|checked)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "output as JSON")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	for _, op := range calculator.Ops {
		cmd.AddCommand(newArithCommand(opts, op))
	}
	cmd.AddCommand(newEvalCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newBatchCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMCPCommand(opts))
	cmd.AddCommand(newReplCommand(opts))
	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newUpgradeCommand())

	return cmd
}

// Execute runs the CLI with process arguments and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	o.logger = logging.Setup(cmd.ErrOrStderr(), o.verbose)

	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return usageError(fmt.Errorf("load config: %w", err))
	}
	if strings.TrimSpace(o.overflow) != "" {
		v := o.overflow
		cfg.Overflow = &v
		if err := cfg.Validate(); err != nil {
			return usageError(err)
		}
	}
	o.cfg = cfg
	o.calc = calculator.New(cfg.Mode())

	format, err := numfmt.New(cfg.Format.IsGrouping(), cfg.Format.GetLocale())
	if err != nil {
		return usageError(fmt.Errorf("number format: %w", err))
	}
	o.format = format

	o.logger.Debug("config loaded", "path", o.configPath, "overflow", cfg.GetOverflow())
	return nil
}

// openHistory opens the history store, or returns nil when history is disabled.
func (o *rootOptions) openHistory() (*history.Store, error) {
	if !o.cfg.History.IsEnabled() {
		return nil, nil
	}
	store, err := history.Open(o.cfg.History.GetPath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// recorder returns a callback that saves evaluations to store.
// Save failures are logged and do not affect the command's result.
func (o *rootOptions) recorder(ctx context.Context, store *history.Store, source string, mode calculator.Mode) func(calculator.Expr, int, error) {
	return func(expr calculator.Expr, result int, evalErr error) {
		if store == nil {
			return
		}
		entry := history.NewEntry(expr, mode, result, evalErr)
		entry.Source = source
		if _, err := store.Record(ctx, entry); err != nil {
			o.logger.Warn("record history", "expr", expr.String(), "error", err)
		}
	}
}

// withHistory opens history for the duration of fn. A store that cannot be
// opened is logged and skipped.
func (o *rootOptions) withHistory(fn func(store *history.Store) error) error {
	store, err := o.openHistory()
	if err != nil {
		o.logger.Warn("history unavailable", "error", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}
	return fn(store)
}
