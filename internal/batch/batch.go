// Package batch evaluates YAML job files containing lists of expressions.
//
// A job file looks like:
//
//	name: monthly totals
//	mode: checked
//	steps:
//	  - op: add
//	    a: 10
//	    b: 10
//	  - expr: "10 / 0"
//
// Every step is evaluated independently; a failing step records its error
// and the remaining steps still run.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pengelbrecht/calc/internal/calculator"
)

// ErrEmptyJob is returned when a job has no steps.
var ErrEmptyJob = errors.New("job has no steps")

// Job is a parsed job file.
type Job struct {
	Name  string `yaml:"name,omitempty"`
	Mode  string `yaml:"mode,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Step is one expression, given either as op/a/b or as an infix expr string.
type Step struct {
	Expr string `yaml:"expr,omitempty"`
	Op   string `yaml:"op,omitempty"`
	A    *int   `yaml:"a,omitempty"`
	B    *int   `yaml:"b,omitempty"`
}

// Resolve converts the step into an expression.
func (s Step) Resolve() (calculator.Expr, error) {
	if s.Expr != "" {
		if s.Op != "" || s.A != nil || s.B != nil {
			return calculator.Expr{}, fmt.Errorf("%w: expr cannot be combined with op/a/b", calculator.ErrInvalidExpr)
		}
		return calculator.ParseExpr(s.Expr)
	}

	if s.A == nil || s.B == nil {
		return calculator.Expr{}, fmt.Errorf("%w: step needs both a and b", calculator.ErrInvalidExpr)
	}
	op, err := calculator.ParseOp(s.Op)
	if err != nil {
		return calculator.Expr{}, err
	}
	return calculator.Expr{A: *s.A, Op: op, B: *s.B}, nil
}

// Parse decodes a job from r.
func Parse(r io.Reader) (Job, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var job Job
	if err := dec.Decode(&job); err != nil {
		if errors.Is(err, io.EOF) {
			return Job{}, ErrEmptyJob
		}
		return Job{}, fmt.Errorf("parse job: %w", err)
	}
	if len(job.Steps) == 0 {
		return Job{}, ErrEmptyJob
	}
	if _, err := calculator.ParseMode(job.Mode); err != nil {
		return Job{}, fmt.Errorf("parse job: %w", err)
	}
	return job, nil
}

// ParseFile reads and decodes the job at path.
func ParseFile(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int    `yaml:"index" json:"index"`
	Expr   string `yaml:"expr" json:"expr"`
	Result *int   `yaml:"result,omitempty" json:"result,omitempty"`
	Error  string `yaml:"error,omitempty" json:"error,omitempty"`

	parsed *calculator.Expr
	err    error
}

// Parsed returns the resolved expression, or false if the step did not parse.
func (r StepResult) Parsed() (calculator.Expr, bool) {
	if r.parsed == nil {
		return calculator.Expr{}, false
	}
	return *r.parsed, true
}

// Err returns the step's error, if any.
func (r StepResult) Err() error {
	return r.err
}

// Report summarises a job run.
type Report struct {
	JobID   string       `yaml:"job_id" json:"job_id"`
	Name    string       `yaml:"name,omitempty" json:"name,omitempty"`
	Mode    string       `yaml:"mode" json:"mode"`
	Results []StepResult `yaml:"results" json:"results"`
}

// Failed returns how many steps failed.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != "" {
			n++
		}
	}
	return n
}

// Run evaluates every step of job. The job's own mode, when set, overrides
// the calculator's.
func Run(calc calculator.Calculator, job Job) Report {
	if job.Mode != "" {
		if mode, err := calculator.ParseMode(job.Mode); err == nil {
			calc.Mode = mode
		}
	}

	report := Report{
		JobID:   uuid.NewString(),
		Name:    job.Name,
		Mode:    calc.Mode.String(),
		Results: make([]StepResult, 0, len(job.Steps)),
	}

	for i, step := range job.Steps {
		res := StepResult{Index: i}

		expr, err := step.Resolve()
		if err != nil {
			res.Expr = describe(step)
			res.Error = err.Error()
			res.err = err
			report.Results = append(report.Results, res)
			continue
		}
		res.Expr = expr.String()
		res.parsed = &expr

		value, err := calc.Eval(expr)
		if err != nil {
			res.Error = err.Error()
			res.err = err
		} else {
			res.Result = &value
		}
		report.Results = append(report.Results, res)
	}

	return report
}

// WriteReport encodes report as YAML.
func WriteReport(w io.Writer, report Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

func describe(s Step) string {
	if s.Expr != "" {
		return s.Expr
	}
	a, b := "?", "?"
	if s.A != nil {
		a = fmt.Sprint(*s.A)
	}
	if s.B != nil {
		b = fmt.Sprint(*s.B)
	}
	return fmt.Sprintf("%s %s %s", a, s.Op, b)
}
