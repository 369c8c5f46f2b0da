package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"highlighter/internal/logging"
)

func TestCreateRunDir(t *testing.T) {
	runsDir := filepath.Join(t.TempDir(), "runs")

	dir, err := Create(runsDir, "run-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dir != filepath.Join(runsDir, "run-1") {
		t.Fatalf("dir = %q", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected run dir to exist: %v", err)
	}

	for _, id := range []string{"", "  ", "a/b", `a\b`} {
		if _, err := Create(runsDir, id); err == nil {
			t.Errorf("expected error for run id %q", id)
		}
	}
}

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()
	then := time.Now().Add(-age)
	if err := os.Chtimes(path, then, then); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func mkdir(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	return path
}

func TestCleanStaleSkipsMissingDirectories(t *testing.T) {
	for _, dir := range []string{"", "   ", filepath.Join(t.TempDir(), "absent")} {
		res := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(res.Removed) != 0 || len(res.Failed) != 0 {
			t.Errorf("CleanStale(%q) = %+v, want empty", dir, res)
		}
	}
}

func TestCleanStaleRemovesOnlyOldDirectories(t *testing.T) {
	root := t.TempDir()
	old := mkdir(t, filepath.Join(root, "old-run"))
	if err := os.WriteFile(filepath.Join(old, "clip.mp4"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	backdate(t, old, 2*time.Hour)
	recent := mkdir(t, filepath.Join(root, "recent-run"))
	file := filepath.Join(root, "stray.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	backdate(t, file, 2*time.Hour)

	res := CleanStale(context.Background(), root, time.Hour, logging.NewNop())

	if len(res.Removed) != 1 || res.Removed[0] != old {
		t.Fatalf("removed = %v, want [%s]", res.Removed, old)
	}
	if res.Freed != 5 {
		t.Fatalf("freed = %d, want 5", res.Freed)
	}
	for _, kept := range []string{recent, file} {
		if _, err := os.Stat(kept); err != nil {
			t.Errorf("%s should survive: %v", kept, err)
		}
	}
}

func TestCleanStaleStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	old := mkdir(t, filepath.Join(root, "old-run"))
	backdate(t, old, 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := CleanStale(ctx, root, time.Hour, logging.NewNop()); len(res.Removed) != 0 {
		t.Fatalf("expected no removals after cancel, got %v", res.Removed)
	}
	if _, err := os.Stat(old); err != nil {
		t.Error("directory should survive a cancelled sweep")
	}
}

func TestPurgeEmptiesEveryDirectory(t *testing.T) {
	root := t.TempDir()
	runs := mkdir(t, filepath.Join(root, "runs"))
	mkdir(t, filepath.Join(runs, "a"))
	mkdir(t, filepath.Join(runs, "b"))
	normalized := mkdir(t, filepath.Join(root, "normalized"))
	if err := os.WriteFile(filepath.Join(normalized, "000_in.mp4"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := Purge(context.Background(), nil, runs, normalized, filepath.Join(root, "missing"))

	if len(res.Removed) != 3 || len(res.Failed) != 0 || res.Freed != 3 {
		t.Fatalf("unexpected sweep %+v", res)
	}
	for _, dir := range []string{runs, normalized} {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) != 0 {
			t.Fatalf("%s not emptied: %v %v", dir, entries, err)
		}
	}
}
