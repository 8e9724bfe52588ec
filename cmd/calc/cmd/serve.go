package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/history"
	"github.com/pengelbrecht/calc/internal/wsapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve evaluations over a websocket",
		Long: `Serve evaluations over a websocket at ws://<addr>/ws.

Each text frame is a JSON request, answered with one JSON response:
  -> {"id": "1", "op": "divide", "a": 10, "b": 3}
  <- {"id": "1", "expr": "10 / 3", "result": 3}
  -> {"id": "2", "expr": "1 / 0"}
  <- {"id": "2", "expr": "1 / 0", "error": "division by zero"}

GET /healthz returns "ok".

Examples:
  calc serve
  calc serve --addr :9000`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.cfg.Server.GetAddr()
			}
			return opts.withHistory(func(store *history.Store) error {
				return runServe(cmd, opts, store, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions, store *history.Store, addr string) error {
	ctx := cmd.Context()

	ws := wsapi.NewServer(opts.calc,
		wsapi.WithLogger(opts.logger),
		wsapi.WithRecorder(opts.recorder(ctx, store, "serve", opts.calc.Mode)),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on ws://%s/ws\n", ln.Addr())
	opts.logger.Info("serving", "addr", ln.Addr().String(), "overflow", opts.calc.Mode.String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
