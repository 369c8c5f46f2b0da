package workflow

import (
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"highlighter/internal/logging"
	"highlighter/internal/services"
)

// runLock guards a work directory against concurrent runs.
type runLock struct {
	path string
	lock *flock.Flock
}

func acquireLock(path string) (*runLock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "acquire lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "workflow", "acquire lock",
			fmt.Sprintf("another highlighter run holds %s", path), nil)
	}
	return &runLock{path: path, lock: lock}, nil
}

func (l *runLock) release(logger *slog.Logger) {
	if l == nil || l.lock == nil {
		return
	}
	if err := l.lock.Unlock(); err != nil && logger != nil {
		logger.Warn("failed to release work directory lock",
			logging.String("lock", l.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if no run is active"),
		)
	}
}
