package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"highlighter/internal/config"
)

// ConfigOption adjusts a config built by NewConfig. The testing.TB and base
// directory are passed for options that need to create files.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns config.Default() with every path rooted in a fresh temp
// directory, then applies opts in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LUTPath = filepath.Join(base, "luts", "cinematic.cube")
	cfg.History.Path = filepath.Join(base, "history.db")
	cfg.Selection.ScoreWorkers = 2
	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// BaseDir returns the temp directory NewConfig rooted cfg in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WithStubbedBinaries puts no-op executables named names (ffmpeg and ffprobe
// when empty) at the front of PATH for the duration of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, base string, _ *config.Config) {
		t.Helper()
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		bin := filepath.Join(base, "bin")
		for _, name := range names {
			writeBytes(t, filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"))
			if err := os.Chmod(filepath.Join(bin, name), 0o755); err != nil {
				t.Fatalf("chmod stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
