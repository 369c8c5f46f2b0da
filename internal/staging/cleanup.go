package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"highlighter/internal/logging"
)

// Sweep reports what a cleanup pass removed.
type Sweep struct {
	Removed []string
	// Freed is the apparent size of everything removed, in bytes.
	Freed  int64
	Failed []Failure
}

// Failure is a path that could not be inspected or removed.
type Failure struct {
	Path string
	Err  error
}

func (s *Sweep) merge(other Sweep) {
	s.Removed = append(s.Removed, other.Removed...)
	s.Freed += other.Freed
	s.Failed = append(s.Failed, other.Failed...)
}

// Create makes the scratch directory for runID under runsDir.
func Create(runsDir, runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	dir := filepath.Join(runsDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// CleanStale removes run directories under runsDir last modified more than
// maxAge ago. Plain files are left alone.
func CleanStale(ctx context.Context, runsDir string, maxAge time.Duration, logger *slog.Logger) Sweep {
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, runsDir, logger, func(entry fs.DirEntry, info fs.FileInfo) bool {
		return entry.IsDir() && info.ModTime().Before(cutoff)
	})
}

// Purge removes every entry under each dir. Missing directories are skipped.
func Purge(ctx context.Context, logger *slog.Logger, dirs ...string) Sweep {
	var total Sweep
	for _, dir := range dirs {
		total.merge(sweep(ctx, dir, logger, func(fs.DirEntry, fs.FileInfo) bool { return true }))
	}
	return total
}

func sweep(ctx context.Context, dir string, logger *slog.Logger, match func(fs.DirEntry, fs.FileInfo) bool) Sweep {
	var res Sweep
	if dir = strings.TrimSpace(dir); dir == "" {
		return res
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			res.Failed = append(res.Failed, Failure{Path: dir, Err: err})
		}
		return res
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			res.Failed = append(res.Failed, Failure{Path: path, Err: err})
			continue
		}
		if !match(entry, info) {
			continue
		}
		size := diskUsage(path)
		if err := os.RemoveAll(path); err != nil {
			res.Failed = append(res.Failed, Failure{Path: path, Err: err})
			logging.WarnWithContext(logger, "scratch entry not removed", "scratch_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		res.Removed = append(res.Removed, path)
		res.Freed += size
		logger.Info("scratch entry removed",
			logging.String("path", path),
			logging.Int64("size_bytes", size),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "scratch_cleanup"),
		)
	}
	return res
}

// diskUsage sums regular file sizes under path, skipping unreadable entries.
func diskUsage(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
