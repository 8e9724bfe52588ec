package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pengelbrecht/calc/internal/config"
	"github.com/pengelbrecht/calc/internal/logging"
)

// testEnv points calc at a config whose history lives in a temp dir.
type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	t.Setenv(config.OverflowEnv, "")
	t.Setenv(logging.DebugEnv, "")

	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.db")
	cfg := config.Default()
	cfg.History = &config.HistoryConfig{Path: &historyPath}

	configPath := filepath.Join(dir, "config.json")
	require.NoError(t, config.Save(configPath, cfg))
	return testEnv{dir: dir, configPath: configPath}
}

func (e testEnv) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", e.configPath}, args...)
	code := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "calc", cmd.Use)
	assert.Contains(t, cmd.Long, "truncates toward zero")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"add", "subtract", "multiply", "divide", "eval", "history", "batch", "watch", "serve", "mcp", "repl", "version", "upgrade"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestAliases(t *testing.T) {
	cmd := NewRootCommand()
	for alias, name := range map[string]string{"sub": "subtract", "mul": "multiply", "div": "divide", "tui": "repl"} {
		sub, _, err := cmd.Find([]string{alias})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	for _, name := range []string{"config", "overflow", "json"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestArithmeticCommands(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"add", "10", "10"}, "20"},
		{[]string{"subtract", "10", "10"}, "0"},
		{[]string{"multiply", "10", "10"}, "100"},
		{[]string{"divide", "10", "10"}, "1"},
		{[]string{"div", "--", "-7", "2"}, "-3"},
		{[]string{"eval", "6", "x", "7"}, "42"},
		{[]string{"eval", "--", "-7 / 2"}, "-3"},
	}

	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			stdout, stderr, code := env.run(t, tc.args...)
			require.Equal(t, ExitSuccess, code, "stderr: %s", stderr)
			assert.Equal(t, tc.want+"\n", stdout)
		})
	}
}

func TestDivideByZeroExitsWithFailure(t *testing.T) {
	env := newTestEnv(t)

	stdout, stderr, code := env.run(t, "divide", "10", "0")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "error: division by zero\n", stderr)
}

func TestUsageErrors(t *testing.T) {
	env := newTestEnv(t)

	cases := [][]string{
		{"add", "1"},
		{"add", "one", "2"},
		{"add", "1", "2", "--bogus"},
		{"eval", "1", "%", "2"},
		{"eval"},
		{"--overflow", "saturate", "add", "1", "2"},
	}

	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, stderr, code := env.run(t, args...)
			assert.Equal(t, ExitUsage, code)
			assert.True(t, strings.HasPrefix(stderr, "error: "), stderr)
		})
	}
}

func TestOverflowModes(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, code := env.run(t, "add", "9223372036854775807", "1")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "-9223372036854775808\n", stdout)

	_, stderr, code := env.run(t, "--overflow", "checked", "add", "9223372036854775807", "1")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "integer overflow")

	t.Setenv(config.OverflowEnv, "checked")
	_, _, code = env.run(t, "multiply", "9223372036854775807", "2")
	assert.Equal(t, ExitFailure, code)
}

func TestJSONOutput(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, code := env.run(t, "--json", "divide", "10", "3")
	require.Equal(t, ExitSuccess, code)
	var ok evalOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &ok))
	assert.Equal(t, "10 / 3", ok.Expr)
	require.NotNil(t, ok.Result)
	assert.Equal(t, 3, *ok.Result)

	stdout, _, code = env.run(t, "--json", "divide", "10", "0")
	assert.Equal(t, ExitFailure, code)
	var failed evalOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &failed))
	assert.Nil(t, failed.Result)
	assert.Equal(t, "division by zero", failed.Error)
}

func TestGroupedOutput(t *testing.T) {
	env := newTestEnv(t)

	grouping := true
	historyPath := filepath.Join(env.dir, "history.db")
	cfg := config.Default()
	cfg.History = &config.HistoryConfig{Path: &historyPath}
	cfg.Format = &config.FormatConfig{Grouping: &grouping}
	require.NoError(t, config.Save(env.configPath, cfg))

	stdout, _, code := env.run(t, "multiply", "1000", "1000")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "1,000,000\n", stdout)
}

func TestHistoryRecordsEvaluations(t *testing.T) {
	env := newTestEnv(t)

	_, _, _ = env.run(t, "add", "10", "10")
	_, _, _ = env.run(t, "divide", "1", "0")

	stdout, _, code := env.run(t, "--json", "history")
	require.Equal(t, ExitSuccess, code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "divide", entries[0]["op"])
	assert.Equal(t, "division by zero", entries[0]["error"])
	assert.Equal(t, "add", entries[1]["op"])
	assert.Equal(t, float64(20), entries[1]["result"])

	stdout, _, code = env.run(t, "history", "--clear")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Cleared 2 entries\n", stdout)

	stdout, _, code = env.run(t, "history")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "No history\n", stdout)
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t)

	disabled := false
	cfg := config.Default()
	cfg.History = &config.HistoryConfig{Enabled: &disabled}
	require.NoError(t, config.Save(env.configPath, cfg))

	stdout, _, code := env.run(t, "add", "1", "1")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "2\n", stdout)

	_, stderr, code := env.run(t, "history")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "history is disabled")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, code := env.run(t, "version")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "calc dev\n", stdout)
}

func TestVersionIgnoresBrokenConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.configPath, []byte("{not json"), 0o644))

	stdout, stderr, code := env.run(t, "version")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "calc dev\n", stdout)

	_, stderr, code = env.run(t, "add", "1", "2")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "load config")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitFailure, exitCode(assert.AnError))
	assert.Equal(t, ExitUsage, exitCode(usageError(assert.AnError)))
	assert.ErrorIs(t, failure(assert.AnError), assert.AnError)
}
