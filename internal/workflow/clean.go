package workflow

import (
	"context"

	"highlighter/internal/services"
	"highlighter/internal/staging"
)

// Clean removes every run scratch directory and the normalized input copies.
// It holds the work directory lock, so it fails instead of disturbing an
// active run.
func (m *Manager) Clean(ctx context.Context) (staging.Sweep, error) {
	if err := m.cfg.EnsureDirectories(); err != nil {
		return staging.Sweep{}, services.Wrap(services.ErrConfiguration, "clean", "prepare directories", "", err)
	}
	lock, err := acquireLock(m.cfg.LockPath())
	if err != nil {
		return staging.Sweep{}, err
	}
	defer lock.release(m.logger)

	return staging.Purge(ctx, m.logger, m.cfg.RunsDir(), m.cfg.NormalizedDir()), nil
}
