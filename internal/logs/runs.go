package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"highlighter/internal/logging"
	"highlighter/internal/services"
)

// Locate returns the log file for runID under logDir. An empty runID selects
// the most recently modified run log; otherwise runID may be any prefix that
// matches exactly one run.
func Locate(logDir, runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID != "" {
		if exact := logging.RunLogPath(logDir, runID); fileExists(exact) {
			return exact, nil
		}
	}

	dir := filepath.Dir(logging.RunLogPath(logDir, "x"))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "logs", "locate", "no run logs in "+dir, nil)
		}
		return "", fmt.Errorf("read run log directory: %w", err)
	}

	var (
		matches []string
		newest  string
		newTime time.Time
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".log" {
			continue
		}
		id := strings.TrimSuffix(name, ".log")
		if runID != "" {
			if strings.HasPrefix(id, runID) {
				matches = append(matches, filepath.Join(dir, name))
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newTime) {
			newest = filepath.Join(dir, name)
			newTime = info.ModTime()
		}
	}

	switch {
	case runID == "" && newest != "":
		return newest, nil
	case runID == "":
		return "", services.Wrap(services.ErrNotFound, "logs", "locate", "no run logs in "+dir, nil)
	case len(matches) == 1:
		return matches[0], nil
	case len(matches) == 0:
		return "", services.Wrap(services.ErrNotFound, "logs", "locate", "no run log for "+runID, nil)
	default:
		return "", services.Wrap(services.ErrValidation, "logs", "locate",
			fmt.Sprintf("run id prefix %q matches %d logs", runID, len(matches)), nil)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
