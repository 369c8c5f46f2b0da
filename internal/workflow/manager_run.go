package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"highlighter/internal/assembly"
	"highlighter/internal/encoder"
	"highlighter/internal/logging"
	"highlighter/internal/metrics"
	"highlighter/internal/notifications"
	"highlighter/internal/preflight"
	"highlighter/internal/services"
	"highlighter/internal/staging"
)

// Summary describes a finished run.
type Summary struct {
	RunID          string
	EncoderProfile encoder.Kind
	Inputs         int
	ScenesDetected int
	ScenesSelected int
	ScenesDropped  int
	ScenesRamped   int
	ClipsBuilt     int
	Output         string
	OutputBytes    int64
	Graded         bool
	LUTPath        string
	VerticalOutput string
	VerticalBytes  int64
	Outcome        string
	Duration       time.Duration
	RunLog         string
}

// Outcome maps a run error to the outcome recorded in history and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return services.OutcomeSucceeded
	case errors.Is(err, assembly.ErrNoValidScenes):
		return services.OutcomeNoScenes
	default:
		return services.FailureOutcome(err)
	}
}

// Run executes one highlight job against the configured directories. It
// returns assembly.ErrNoValidScenes when no clip survived selection and the
// camera gates; the Summary is populated as far as the run progressed.
func (m *Manager) Run(ctx context.Context) (summary Summary, err error) {
	start := m.now()
	summary.RunID = uuid.NewString()
	ctx = services.WithRunID(ctx, summary.RunID)

	if err := m.cfg.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "prepare directories", "", err)
	}
	lock, err := acquireLock(m.cfg.LockPath())
	if err != nil {
		return summary, err
	}

	logger, logPath, closeLog := m.runLogger(summary.RunID)
	summary.RunLog = logPath
	defer closeLog()
	defer lock.release(logger)
	runLogger := logging.WithContext(ctx, logger)

	recorder := metrics.New()
	record := m.beginHistory(ctx, runLogger, summary.RunID)

	defer func() {
		summary.Duration = m.now().Sub(start)
		summary.Outcome = Outcome(err)
		recorder.Finish(summary.Outcome, summary.Duration)
		if werr := recorder.WriteTextfile(m.cfg.Metrics.TextfilePath); werr != nil {
			logging.WarnWithContext(runLogger, "metrics textfile not written", "metrics_write_failed",
				logging.String("path", m.cfg.Metrics.TextfilePath),
				logging.Error(werr),
				logging.String(logging.FieldErrorHint, "check metrics.textfile_path permissions"),
				logging.String(logging.FieldImpact, "node_exporter keeps the previous run's values"),
			)
		}
		record.finish(context.WithoutCancel(ctx), summary, err)
		logOutcome(runLogger, summary, err)
		m.notify(context.WithoutCancel(ctx), runLogger, summary, err)
	}()

	runLogger.Info("highlight run started",
		logging.String("input_dir", m.cfg.Paths.InputDir),
		logging.String("output_dir", m.cfg.Paths.OutputDir),
		logging.Bool("gpu_requested", m.cfg.Encoder.UseGPU),
		logging.Bool("vertical", m.cfg.Export.Vertical),
		logging.String(logging.FieldEventType, "run_start"),
	)

	if failed := preflight.Failed(preflight.RunAll(ctx, m.cfg)); len(failed) > 0 {
		return summary, preflightError(failed)
	}

	m.sweep(ctx, logger, summary.RunID)
	runDir, err := staging.Create(m.cfg.RunsDir(), summary.RunID)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "create run directory", m.cfg.RunsDir(), err)
	}
	defer func() {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			runLogger.Warn("failed to remove run directory",
				logging.String("path", runDir),
				logging.Error(rmErr),
				logging.String(logging.FieldEventType, "run_dir_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "it will be swept once older than workflow.stale_run_hours"),
			)
		}
	}()

	err = m.execute(ctx, logger, runDir, recorder, &summary)
	return summary, err
}

func (m *Manager) runLogger(runID string) (*slog.Logger, string, func()) {
	handler, closer, err := logging.OpenRunLog(m.cfg.Paths.LogDir, runID, m.cfg.Logging.Level)
	if err != nil {
		m.logger.Warn("run log unavailable; logging to console only",
			logging.Error(err),
			logging.String(logging.FieldEventType, "run_log_unavailable"),
			logging.String(logging.FieldErrorHint, "check paths.log_dir permissions"),
		)
		return m.logger, "", func() {}
	}
	return logging.TeeLogger(m.logger, handler), logging.RunLogPath(m.cfg.Paths.LogDir, runID), func() {
		_ = closer.Close()
	}
}

// sweep removes leftovers of earlier runs. It runs under the work directory
// lock, so nothing it touches can belong to a live run.
func (m *Manager) sweep(ctx context.Context, logger *slog.Logger, runID string) {
	if age := m.cfg.StaleRunAge(); age > 0 {
		result := staging.CleanStale(ctx, m.cfg.RunsDir(), age, logger)
		if len(result.Failed) > 0 {
			logging.WithContext(ctx, logger).Debug("stale run sweep incomplete",
				logging.Int("removed", len(result.Removed)),
				logging.Int("errors", len(result.Failed)),
			)
		}
	}
	logging.PruneRunLogs(logger, m.cfg.Paths.LogDir, m.cfg.Logging.RetentionDays, runID)
}

// notify pushes the outcome. Cancelled runs are not reported.
func (m *Manager) notify(ctx context.Context, logger *slog.Logger, summary Summary, runErr error) {
	report := notifications.Report{
		RunID:          summary.RunID,
		Output:         summary.Output,
		OutputMB:       assembly.SizeMB(summary.OutputBytes),
		VerticalOutput: summary.VerticalOutput,
		ScenesDetected: summary.ScenesDetected,
		ClipsBuilt:     summary.ClipsBuilt,
		Duration:       summary.Duration,
	}
	var err error
	switch summary.Outcome {
	case services.OutcomeSucceeded:
		err = m.notifier.NotifyRunCompleted(ctx, report)
	case services.OutcomeNoScenes:
		err = m.notifier.NotifyNoScenes(ctx, report)
	case services.OutcomeCancelled:
		return
	default:
		err = m.notifier.NotifyRunFailed(ctx, runErr, summary.Outcome)
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification not delivered", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		detail := strings.TrimSpace(r.Detail)
		if detail == "" {
			detail = "failed"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(parts, "; "), nil)
}

func logOutcome(logger *slog.Logger, summary Summary, err error) {
	attrs := []logging.Attr{
		logging.String("outcome", summary.Outcome),
		logging.Duration("run_duration", summary.Duration),
		logging.Int("scenes_detected", summary.ScenesDetected),
		logging.Int("scenes_selected", summary.ScenesSelected),
		logging.Int("clips_built", summary.ClipsBuilt),
	}
	switch {
	case err == nil:
		attrs = append(attrs,
			logging.String("output", summary.Output),
			logging.Float64("size_mb", assembly.SizeMB(summary.OutputBytes)),
			logging.String(logging.FieldEventType, "run_complete"),
		)
		logger.Info("highlight run complete", logging.Args(attrs...)...)
	case errors.Is(err, assembly.ErrNoValidScenes):
		attrs = append(attrs, logging.String(logging.FieldEventType, "run_no_scenes"))
		logger.Info("highlight run produced no output; no scene survived", logging.Args(attrs...)...)
	case errors.Is(err, context.Canceled):
		attrs = append(attrs, logging.String(logging.FieldEventType, "run_cancelled"))
		logger.Info("highlight run cancelled", logging.Args(attrs...)...)
	default:
		attrs = append(attrs, logging.Error(err))
		logging.ErrorWithContext(logger, "highlight run failed", "run_failed", attrs...)
	}
}
