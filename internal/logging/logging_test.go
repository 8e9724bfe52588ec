package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cases := []struct {
		name      string
		verbose   bool
		env       string
		wantDebug bool
	}{
		{"quiet", false, "", false},
		{"verbose flag", true, "", true},
		{"env on", false, "1", true},
		{"env false", false, "false", false},
		{"env zero", false, "0", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(DebugEnv, tc.env)
			var buf bytes.Buffer
			logger := Setup(&buf, tc.verbose)
			logger.Debug("probe")

			got := strings.Contains(buf.String(), "probe")
			if got != tc.wantDebug {
				t.Errorf("debug emitted = %v, want %v (output %q)", got, tc.wantDebug, buf.String())
			}
		})
	}
}

func TestSetupWarnsAlways(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv(DebugEnv, "")

	var buf bytes.Buffer
	Setup(&buf, false)
	slog.Warn("careful", "key", "value")

	if !strings.Contains(buf.String(), "key=value") {
		t.Fatalf("expected warning in output, got %q", buf.String())
	}
}
