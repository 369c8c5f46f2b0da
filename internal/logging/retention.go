package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PruneRunLogs deletes run logs under <logDir>/runs whose modification time
// is more than retentionDays old. The log of currentRunID is always kept and
// retentionDays <= 0 disables pruning.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, currentRunID string) {
	if strings.TrimSpace(logDir) == "" || retentionDays <= 0 {
		return
	}
	keep := ""
	if currentRunID != "" {
		keep = filepath.Base(RunLogPath(logDir, currentRunID))
	}
	runsDir := filepath.Join(logDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == keep || filepath.Ext(name) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(runsDir, name)
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log not pruned", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on log_dir"),
				String(FieldImpact, "old run log stays on disk"),
			)
			continue
		}
		if logger != nil {
			logger.Debug("run log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
}
