package cmd

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/pengelbrecht/calc/internal/calculator"
	"github.com/pengelbrecht/calc/internal/history"
	"github.com/pengelbrecht/calc/internal/numfmt"
)

func TestRenderHistory_Golden(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	entries := []history.Entry{
		history.NewEntry(calculator.Expr{A: 1, Op: calculator.OpDivide, B: 0}, calculator.ModeWrap, 0, calculator.ErrDivisionByZero),
		history.NewEntry(calculator.Expr{A: 1000, Op: calculator.OpMultiply, B: 1000}, calculator.ModeWrap, 1000000, nil),
		history.NewEntry(calculator.Expr{A: -7, Op: calculator.OpDivide, B: 2}, calculator.ModeWrap, -3, nil),
		history.NewEntry(calculator.Expr{A: 10, Op: calculator.OpAdd, B: 10}, calculator.ModeChecked, 20, nil),
	}
	for i := range entries {
		entries[i].CreatedAt = base.Add(-time.Duration(i) * time.Minute)
	}

	format, err := numfmt.New(true, "en")
	if err != nil {
		t.Fatalf("numfmt: %v", err)
	}

	var buf bytes.Buffer
	renderHistory(&buf, entries, format, time.UTC)

	g := goldie.New(t)
	g.Assert(t, "history", buf.Bytes())
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil, numfmt.Formatter{}, time.UTC)
	if buf.String() != "No history\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewEntryFromError(t *testing.T) {
	e := history.NewEntry(calculator.Expr{A: 1, Op: calculator.OpDivide, B: 0}, calculator.ModeWrap, 0, errors.New("boom"))
	if e.Result != nil || e.Err != "boom" {
		t.Fatalf("unexpected entry %+v", e)
	}
}
