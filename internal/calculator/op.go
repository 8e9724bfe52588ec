package calculator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op names one of the four arithmetic operations.
type Op string

// Supported operations.
const (
	OpAdd      Op = "add"
	OpSubtract Op = "subtract"
	OpMultiply Op = "multiply"
	OpDivide   Op = "divide"
)

// Ops lists every supported operation in display order.
var Ops = []Op{OpAdd, OpSubtract, OpMultiply, OpDivide}

var (
	// ErrUnknownOp is returned when an operation name or symbol is not recognised.
	ErrUnknownOp = errors.New("unknown operation")

	// ErrInvalidExpr is returned when an expression is not of the form "<a> <op> <b>".
	ErrInvalidExpr = errors.New("invalid expression")
)

var opAliases = map[string]Op{
	"add":      OpAdd,
	"plus":     OpAdd,
	"+":        OpAdd,
	"subtract": OpSubtract,
	"sub":      OpSubtract,
	"minus":    OpSubtract,
	"-":        OpSubtract,
	"multiply": OpMultiply,
	"mul":      OpMultiply,
	"times":    OpMultiply,
	"*":        OpMultiply,
	"x":        OpMultiply,
	"divide":   OpDivide,
	"div":      OpDivide,
	"/":        OpDivide,
}

// ParseOp resolves an operation from its name, alias or symbol.
func ParseOp(s string) (Op, error) {
	op, ok := opAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, s)
	}
	return op, nil
}

// Symbol returns the infix symbol for the operation.
func (o Op) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	default:
		return "?"
	}
}

// Valid reports whether o is one of the supported operations.
func (o Op) Valid() bool {
	switch o {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

// Mode selects how overflow is handled.
type Mode int

const (
	// ModeWrap wraps on overflow (two's complement).
	ModeWrap Mode = iota
	// ModeChecked reports ErrOverflow.
	ModeChecked
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeWrap:
		return "wrap"
	case ModeChecked:
		return "checked"
	default:
		return "unknown"
	}
}

// ParseMode converts "wrap" or "checked" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap":
		return ModeWrap, nil
	case "checked":
		return ModeChecked, nil
	default:
		return ModeWrap, fmt.Errorf("overflow mode must be wrap or checked, got %q", s)
	}
}

// Calculator applies operations under a fixed overflow mode.
// The zero value wraps on overflow.
type Calculator struct {
	Mode Mode
}

// New returns a calculator using the given overflow mode.
func New(mode Mode) Calculator {
	return Calculator{Mode: mode}
}

// Apply evaluates op on a and b.
func (c Calculator) Apply(op Op, a, b int) (int, error) {
	if c.Mode == ModeChecked {
		switch op {
		case OpAdd:
			return AddChecked(a, b)
		case OpSubtract:
			return SubtractChecked(a, b)
		case OpMultiply:
			return MultiplyChecked(a, b)
		case OpDivide:
			return DivideChecked(a, b)
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownOp, string(op))
	}

	switch op {
	case OpAdd:
		return Add(a, b), nil
	case OpSubtract:
		return Subtract(a, b), nil
	case OpMultiply:
		return Multiply(a, b), nil
	case OpDivide:
		return Divide(a, b)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOp, string(op))
}

// Eval evaluates a parsed expression.
func (c Calculator) Eval(e Expr) (int, error) {
	return c.Apply(e.Op, e.A, e.B)
}

// Expr is a single binary expression.
type Expr struct {
	A  int
	Op Op
	B  int
}

// String renders the expression in canonical infix form.
func (e Expr) String() string {
	return fmt.Sprintf("%d %s %d", e.A, e.Op.Symbol(), e.B)
}

// ParseExpr parses "<a> <op> <b>" where op is a name, alias or symbol.
// Tokens must be separated by whitespace.
func ParseExpr(s string) (Expr, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Expr{}, fmt.Errorf("%w: want \"<a> <op> <b>\", got %q", ErrInvalidExpr, s)
	}

	a, err := ParseOperand(fields[0])
	if err != nil {
		return Expr{}, err
	}
	op, err := ParseOp(fields[1])
	if err != nil {
		return Expr{}, err
	}
	b, err := ParseOperand(fields[2])
	if err != nil {
		return Expr{}, err
	}

	return Expr{A: a, Op: op, B: b}, nil
}

// ParseOperand parses a base-10 integer operand.
func ParseOperand(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: operand %q is not an integer", ErrInvalidExpr, s)
	}
	return n, nil
}
