// Package wsapi serves expression evaluation over websockets.
package wsapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pengelbrecht/calc/internal/calculator"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	maxFrameSize = 4096
)

// Request is one evaluation request. Either Expr or all of Op, A and B is set.
type Request struct {
	ID   string `json:"id,omitempty"`
	Expr string `json:"expr,omitempty"`
	Op   string `json:"op,omitempty"`
	A    *int   `json:"a,omitempty"`
	B    *int   `json:"b,omitempty"`
}

// Response answers a Request. Exactly one of Result and Error is set.
type Response struct {
	ID     string `json:"id,omitempty"`
	Expr   string `json:"expr,omitempty"`
	Result *int   `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Recorder receives every successfully parsed evaluation.
type Recorder func(expr calculator.Expr, result int, err error)

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

// Server evaluates requests arriving on websocket connections.
type Server struct {
	calc     calculator.Calculator
	logger   *slog.Logger
	record   Recorder
	upgrader websocket.Upgrader
}

// NewServer creates a server using calc for evaluation.
func NewServer(calc calculator.Calculator, opts ...Option) *Server {
	s := &Server{
		calc:   calc,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes: /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Evaluate answers a single request without any transport.
func (s *Server) Evaluate(req Request) Response {
	resp := Response{ID: req.ID}

	expr, err := resolve(req)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Expr = expr.String()

	value, err := s.calc.Eval(expr)
	if s.record != nil {
		s.record(expr, value, err)
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = &value
	return resp
}

func resolve(req Request) (calculator.Expr, error) {
	if req.Expr != "" {
		if req.Op != "" || req.A != nil || req.B != nil {
			return calculator.Expr{}, fmt.Errorf("%w: expr cannot be combined with op/a/b", calculator.ErrInvalidExpr)
		}
		return calculator.ParseExpr(req.Expr)
	}
	if req.Op == "" {
		return calculator.Expr{}, errors.New("request needs expr or op")
	}
	if req.A == nil || req.B == nil {
		return calculator.Expr{}, fmt.Errorf("%w: request needs both a and b", calculator.ErrInvalidExpr)
	}
	op, err := calculator.ParseOp(req.Op)
	if err != nil {
		return calculator.Expr{}, err
	}
	return calculator.Expr{A: *req.A, Op: op, B: *req.B}, nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	s.logger.Debug("websocket connected", "remote", r.RemoteAddr)

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

		var resp Response
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			resp = Response{Error: "malformed request: " + err.Error()}
		} else {
			resp = s.Evaluate(req)
		}

		out, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("encode response", "error", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			s.logger.Warn("websocket write failed", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}
