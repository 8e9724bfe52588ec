package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pengelbrecht/calc/internal/calculator"
	"github.com/pengelbrecht/calc/internal/history"
)

var arithAliases = map[calculator.Op][]string{
	calculator.OpAdd:      {"plus"},
	calculator.OpSubtract: {"sub", "minus"},
	calculator.OpMultiply: {"mul", "times"},
	calculator.OpDivide:   {"div"},
}

var arithShort = map[calculator.Op]string{
	calculator.OpAdd:      "Add two integers",
	calculator.OpSubtract: "Subtract b from a",
	calculator.OpMultiply: "Multiply two integers",
	calculator.OpDivide:   "Divide a by b, truncating toward zero",
}

func newArithCommand(opts *rootOptions, op calculator.Op) *cobra.Command {
	name := string(op)
	return &cobra.Command{
		Use:     name + " <a> <b>",
		Aliases: arithAliases[op],
		Short:   arithShort[op],
		Long: fmt.Sprintf(`%s.

Examples:
  calc %s 10 3
  calc %s -- -10 3
  calc %s 10 3 --json`, arithShort[op], name, name, name),
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := calculator.ParseOperand(args[0])
			if err != nil {
				return usageError(err)
			}
			b, err := calculator.ParseOperand(args[1])
			if err != nil {
				return usageError(err)
			}
			return opts.evaluate(cmd, calculator.Expr{A: a, Op: op, B: b})
		},
	}
}

func newEvalCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expr>",
		Short: `Evaluate an expression such as "10 / 3"`,
		Long: `Evaluate a single "<a> <op> <b>" expression.

The operator may be a symbol (+ - * x /) or a name (add, sub, mul, div).
Tokens may be given as one quoted argument or as separate arguments.

Examples:
  calc eval "10 / 3"
  calc eval 6 x 7
  calc eval -- "-7 / 2"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError(errors.New("requires an expression"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := calculator.ParseExpr(strings.Join(args, " "))
			if err != nil {
				return usageError(err)
			}
			return opts.evaluate(cmd, expr)
		},
	}
}

// evalOutput is the JSON shape for a single evaluation.
type evalOutput struct {
	Expr   string `json:"expr"`
	Result *int   `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// evaluate runs expr, records it and prints the outcome.
func (o *rootOptions) evaluate(cmd *cobra.Command, expr calculator.Expr) error {
	result, evalErr := o.calc.Eval(expr)
	o.logger.Debug("evaluated", "expr", expr.String(), "mode", o.calc.Mode.String(), "error", evalErr)

	_ = o.withHistory(func(store *history.Store) error {
		o.recorder(cmd.Context(), store, "cli", o.calc.Mode)(expr, result, evalErr)
		return nil
	})

	out := cmd.OutOrStdout()
	if o.json {
		payload := evalOutput{Expr: expr.String()}
		if evalErr != nil {
			payload.Error = evalErr.Error()
		} else {
			payload.Result = &result
		}
		if err := json.NewEncoder(out).Encode(payload); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	} else if evalErr == nil {
		fmt.Fprintln(out, o.format.Int(result))
	}

	if evalErr != nil {
		if errors.Is(evalErr, calculator.ErrUnknownOp) {
			return usageError(evalErr)
		}
		return failure(evalErr)
	}
	return nil
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
