package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"highlighter/internal/assembly"
	"highlighter/internal/history"
	"highlighter/internal/logging"
	"highlighter/internal/services"
)

// runRecord persists one run in the history database. A nil record is a
// no-op so history problems never block a run.
type runRecord struct {
	store  *history.Store
	run    *history.Run
	logger *slog.Logger
}

func (m *Manager) beginHistory(ctx context.Context, logger *slog.Logger, runID string) *runRecord {
	if !m.cfg.History.Enabled || strings.TrimSpace(m.cfg.History.Path) == "" {
		return nil
	}
	warn := func(msg string, err error) {
		logging.WarnWithContext(logger, msg, "history_unavailable",
			logging.String("path", m.cfg.History.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path or disable history"),
			logging.String(logging.FieldImpact, "this run is not recorded in highlighter history"),
		)
	}

	store, err := history.Open(m.cfg.History.Path)
	if err != nil {
		warn("run history unavailable", err)
		return nil
	}
	if n, err := store.MarkInterrupted(ctx, services.OutcomeFailed); err != nil {
		logger.Debug("mark interrupted runs failed", logging.Error(err))
	} else if n > 0 {
		logger.Info("marked interrupted runs as failed",
			logging.Int64("runs", n),
			logging.String(logging.FieldEventType, "history_interrupted"),
		)
	}
	if days := m.cfg.Logging.RetentionDays; days > 0 {
		if _, err := store.Prune(ctx, m.now().AddDate(0, 0, -days)); err != nil {
			logger.Debug("history prune failed", logging.Error(err))
		}
	}
	run, err := store.Begin(ctx, runID, m.cfg.Paths.InputDir)
	if err != nil {
		_ = store.Close()
		warn("run history insert failed", err)
		return nil
	}
	return &runRecord{store: store, run: run, logger: logger}
}

func (r *runRecord) finish(ctx context.Context, summary Summary, runErr error) {
	if r == nil {
		return
	}
	defer r.store.Close()

	run := r.run
	run.Status = summary.Outcome
	run.EncoderProfile = string(summary.EncoderProfile)
	run.Inputs = summary.Inputs
	run.ScenesDetected = summary.ScenesDetected
	run.ScenesSelected = summary.ScenesSelected
	run.ClipsBuilt = summary.ClipsBuilt
	run.Graded = summary.Graded
	run.OutputPath = summary.Output
	run.OutputBytes = summary.OutputBytes
	run.VerticalPath = summary.VerticalOutput
	if runErr != nil && !errors.Is(runErr, assembly.ErrNoValidScenes) {
		run.ErrorMessage = runErr.Error()
	}
	if err := r.store.Finish(ctx, run); err != nil {
		logging.WarnWithContext(r.logger, "run history update failed", "history_update_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the history database"),
			logging.String(logging.FieldImpact, "the run stays marked running until the next start"),
		)
	}
}
