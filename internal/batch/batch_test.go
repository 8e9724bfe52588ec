package batch

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pengelbrecht/calc/internal/calculator"
)

const sampleJob = `
name: basics
steps:
  - op: add
    a: 10
    b: 10
  - op: sub
    a: 10
    b: 10
  - expr: "10 * 10"
  - expr: "10 / 10"
  - expr: "10 / 0"
  - op: pow
    a: 2
    b: 3
`

func TestParse(t *testing.T) {
	job, err := Parse(strings.NewReader(sampleJob))
	require.NoError(t, err)
	assert.Equal(t, "basics", job.Name)
	assert.Len(t, job.Steps, 6)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty document", "", ErrEmptyJob},
		{"no steps", "name: nothing\nsteps: []\n", ErrEmptyJob},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseRejectsUnknownFieldsAndModes(t *testing.T) {
	_, err := Parse(strings.NewReader("steps:\n  - op: add\n    a: 1\n    b: 2\n    c: 3\n"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("mode: saturate\nsteps:\n  - expr: 1 + 1\n"))
	assert.Error(t, err)
}

func TestRunCollectsEveryStep(t *testing.T) {
	job, err := Parse(strings.NewReader(sampleJob))
	require.NoError(t, err)

	report := Run(calculator.New(calculator.ModeWrap), job)
	require.Len(t, report.Results, 6)
	assert.NotEmpty(t, report.JobID)
	assert.Equal(t, "wrap", report.Mode)
	assert.Equal(t, 2, report.Failed())

	want := []int{20, 0, 100, 1}
	for i, w := range want {
		res := report.Results[i]
		require.NotNil(t, res.Result, "step %d", i)
		assert.Equal(t, w, *res.Result, "step %d", i)
	}

	divZero := report.Results[4]
	assert.Nil(t, divZero.Result)
	assert.Equal(t, "10 / 0", divZero.Expr)
	assert.True(t, errors.Is(divZero.Err(), calculator.ErrDivisionByZero))
	parsed, ok := divZero.Parsed()
	assert.True(t, ok)
	assert.Equal(t, calculator.OpDivide, parsed.Op)

	unknown := report.Results[5]
	assert.True(t, errors.Is(unknown.Err(), calculator.ErrUnknownOp))
	assert.Equal(t, "2 pow 3", unknown.Expr)
	_, ok = unknown.Parsed()
	assert.False(t, ok)
}

func TestRunJobModeOverrides(t *testing.T) {
	job := Job{
		Mode:  "checked",
		Steps: []Step{{Expr: "9223372036854775807 + 1"}},
	}

	report := Run(calculator.New(calculator.ModeWrap), job)
	assert.Equal(t, "checked", report.Mode)
	require.Len(t, report.Results, 1)
	assert.True(t, errors.Is(report.Results[0].Err(), calculator.ErrOverflow))
}

func TestStepResolve(t *testing.T) {
	a, b := 3, 4
	cases := []struct {
		name    string
		step    Step
		want    calculator.Expr
		wantErr bool
	}{
		{"op form", Step{Op: "*", A: &a, B: &b}, calculator.Expr{A: 3, Op: calculator.OpMultiply, B: 4}, false},
		{"expr form", Step{Expr: "3 - 4"}, calculator.Expr{A: 3, Op: calculator.OpSubtract, B: 4}, false},
		{"missing operand", Step{Op: "add", A: &a}, calculator.Expr{}, true},
		{"mixed forms", Step{Expr: "1 + 1", A: &a}, calculator.Expr{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.step.Resolve()
			if tc.wantErr {
				assert.ErrorIs(t, err, calculator.ErrInvalidExpr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWriteReportRoundTrip(t *testing.T) {
	job, err := Parse(strings.NewReader(sampleJob))
	require.NoError(t, err)
	report := Run(calculator.Calculator{}, job)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.JobID, decoded.JobID)
	require.Len(t, decoded.Results, len(report.Results))
	assert.Equal(t, "division by zero", decoded.Results[4].Error)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleJob), 0o644))

	job, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, job.Steps, 6)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
