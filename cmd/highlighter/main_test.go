package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"highlighter/internal/assembly"
	"highlighter/internal/config"
	"highlighter/internal/history"
	"highlighter/internal/services"
	"highlighter/internal/testsupport"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	inputDir    string
	historyPath string
	lutPath     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "highlighter.toml"),
		inputDir:    filepath.Join(base, "input"),
		historyPath: filepath.Join(base, "state", "history.db"),
		lutPath:     filepath.Join(base, "grade.cube"),
	}
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	content := fmt.Sprintf(`[paths]
input_dir = %q
work_dir = %q
output_dir = %q
log_dir = %q
lut_path = %q

[color]
min_lut_bytes = 16

[history]
enabled = true
path = %q
`,
		env.inputDir,
		filepath.Join(base, "work"),
		filepath.Join(base, "output"),
		filepath.Join(base, "logs"),
		env.lutPath,
		env.historyPath,
	)
	testsupport.WriteText(t, env.configPath, content)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func cube(rows int) string {
	var b strings.Builder
	b.WriteString("TITLE \"test\"\nLUT_3D_SIZE 2\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "0.%d 0.5 1.0\n", i)
	}
	return b.String()
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# "+env.configPath)
	requireContains(t, out, env.inputDir)
	requireContains(t, out, "[history]")
}

func TestLUTCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.WriteText(t, env.lutPath, cube(8))
	out, _, err := runCLI(t, []string{"lut"}, env.configPath)
	if err != nil {
		t.Fatalf("lut: %v", err)
	}
	requireContains(t, out, "[OK] LUT_3D_SIZE 2 with 8 rows")

	broken := filepath.Join(env.baseDir, "broken.cube")
	testsupport.WriteText(t, broken, cube(5))
	out, _, err = runCLI(t, []string{"lut", broken}, env.configPath)
	if err == nil {
		t.Fatal("expected truncated LUT to be rejected")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, err.Error(), "skip color grading")
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history on empty store: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	store, err := history.Open(env.historyPath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	ctx := context.Background()
	run, err := store.Begin(ctx, "0123456789abcdef", env.inputDir)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	run.Status = services.OutcomeSucceeded
	run.EncoderProfile = "software"
	run.ScenesDetected = 9
	run.ScenesSelected = 4
	run.ClipsBuilt = 3
	run.OutputPath = filepath.Join(env.baseDir, "output", "highlight.mp4")
	if err := store.Finish(ctx, run); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out, _, err = runCLI(t, []string{"history", "--limit", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "01234567")
	requireContains(t, out, "4/9")
	requireContains(t, out, "highlight.mp4")
	if strings.Contains(out, "0123456789abcdef") {
		t.Fatalf("expected shortened run id, got:\n%s", out)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, env.configPath, strings.Replace(readFile(t, env.configPath), "enabled = true", "enabled = false", 1))

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "disabled")
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	runLog := filepath.Join(env.baseDir, "logs", "runs", "5f0c2d1e-aaaa.log")
	testsupport.WriteText(t, runLog, `{"level":"info","msg":"highlight run started","stage":""}
{"level":"warn","msg":"scene scoring failed","stage":"scoring"}
{"level":"info","msg":"highlight run complete"}
`)

	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "highlight run complete")

	out, _, err = runCLI(t, []string{"logs", "5f0c", "--level", "warn"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --level: %v", err)
	}
	requireContains(t, out, "scene scoring failed")
	if strings.Contains(out, "highlight run started") {
		t.Fatalf("expected info lines to be filtered, got:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"logs", "ffff"}, env.configPath); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for unknown run, got %v", err)
	}
}

func TestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"notify"}, env.configPath)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	requireContains(t, out, "disabled")
}

func TestRunRequiresInputDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "missing")

	_, _, err := runCLI(t, []string{"run", "--input", missing}, env.configPath)
	if err == nil {
		t.Fatal("expected run against a missing input directory to fail")
	}
	if exitCode(err) != 1 {
		t.Fatalf("exitCode = %d, want 1", exitCode(err))
	}
}

func TestApplyRunOverrides(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	opts := runOptions{input: dir + "/in ", output: dir + "/out", gpu: true, vertical: true}
	if err := applyRunOverrides(&cfg, opts); err != nil {
		t.Fatalf("applyRunOverrides: %v", err)
	}
	if cfg.Paths.InputDir != filepath.Join(dir, "in") {
		t.Fatalf("input dir = %q", cfg.Paths.InputDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(dir, "out") {
		t.Fatalf("output dir = %q", cfg.Paths.OutputDir)
	}
	if !cfg.Encoder.UseGPU || !cfg.Export.Vertical {
		t.Fatalf("expected gpu and vertical overrides, got %+v %+v", cfg.Encoder, cfg.Export)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"no scenes", fmt.Errorf("assembly: %w", assembly.ErrNoValidScenes), exitNoScenes},
		{"failure", errors.New("boom"), 1},
		{"cancelled", context.Canceled, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
