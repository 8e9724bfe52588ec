// Package mcptools exposes the calculator as Model Context Protocol tools.
package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pengelbrecht/calc/internal/calculator"
)

// Recorder receives every evaluation performed by a tool call.
type Recorder func(expr calculator.Expr, result int, err error)

// Server wraps an MCP server with the calculator tools registered.
type Server struct {
	server *server.MCPServer
	calc   calculator.Calculator
	logger *slog.Logger
	record Recorder
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRecorder registers a callback invoked after every evaluation.
func WithRecorder(rec Recorder) Option {
	return func(s *Server) {
		s.record = rec
	}
}

// NewServer creates the MCP server and registers its tools.
func NewServer(version string, calc calculator.Calculator, opts ...Option) *Server {
	s := &Server{
		server: server.NewMCPServer("calc", version),
		calc:   calc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, op := range calculator.Ops {
		s.addOpTool(op)
	}
	s.addEvaluateTool()

	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.server
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}

var opDescriptions = map[calculator.Op]string{
	calculator.OpAdd:      "Add two integers",
	calculator.OpSubtract: "Subtract b from a",
	calculator.OpMultiply: "Multiply two integers",
	calculator.OpDivide:   "Divide a by b, truncating toward zero. Fails when b is zero",
}

func (s *Server) addOpTool(op calculator.Op) {
	tool := mcp.NewTool(string(op),
		mcp.WithDescription(opDescriptions[op]),
		mcp.WithNumber("a",
			mcp.Required(),
			mcp.Description("First operand (integer; pass values beyond 2^53 as strings)"),
		),
		mcp.WithNumber("b",
			mcp.Required(),
			mcp.Description("Second operand (integer; pass values beyond 2^53 as strings)"),
		),
	)
	s.server.AddTool(tool, s.opHandler(op))
}

func (s *Server) addEvaluateTool() {
	tool := mcp.NewTool("evaluate",
		mcp.WithDescription(`Evaluate "<a> <op> <b>", e.g. "10 / 3"`),
		mcp.WithString("expr",
			mcp.Required(),
			mcp.Description("Expression with whitespace-separated tokens"),
		),
	)
	s.server.AddTool(tool, s.Evaluate)
}

func (s *Server) opHandler(op calculator.Op) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logger.Debug("tool call", "tool", op)

		a, err := intArg(request, "a")
		if err != nil {
			return newErrorResult("%v", err), nil
		}
		b, err := intArg(request, "b")
		if err != nil {
			return newErrorResult("%v", err), nil
		}
		return s.eval(calculator.Expr{A: a, Op: op, B: b}), nil
	}
}

// Evaluate handles the evaluate tool.
func (s *Server) Evaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := request.Params.Arguments["expr"].(string)
	if !ok {
		return newErrorResult("expr must be a string"), nil
	}
	expr, err := calculator.ParseExpr(raw)
	if err != nil {
		return newErrorResult("%v", err), nil
	}
	return s.eval(expr), nil
}

func (s *Server) eval(expr calculator.Expr) *mcp.CallToolResult {
	result, err := s.calc.Eval(expr)
	if s.record != nil {
		s.record(expr, result, err)
	}
	if err != nil {
		return newErrorResult("%s: %v", expr, err)
	}
	return mcp.NewToolResultText(strconv.Itoa(result))
}

// maxExactInt is the largest magnitude a float64 holds without rounding
// neighbouring integers together.
const maxExactInt = 1<<53 - 1

// intArg reads a JSON number argument that must hold an integer value.
// Numbers beyond ±(2^53-1) are rejected since JSON decoding has already
// rounded them; such operands must be sent as strings.
func intArg(request mcp.CallToolRequest, name string) (int, error) {
	v, ok := request.Params.Arguments[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing argument %q", name)
	}

	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", name, n)
		}
		if math.Abs(n) > maxExactInt {
			return 0, fmt.Errorf("argument %q is too large for a JSON number; pass it as a string or use evaluate", name)
		}
		return int(n), nil
	case int:
		return n, nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer, got %q", name, n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number", name)
	}
}

func newErrorResult(format string, args ...interface{}) *mcp.CallToolResult {
	result := mcp.NewToolResultText(fmt.Sprintf("Error: "+format, args...))
	result.IsError = true
	return result
}
