package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"highlighter/internal/logging"
	"highlighter/internal/services"
)

// Func is the body of a pipeline stage. The logger carries run and stage
// fields derived from ctx.
type Func func(ctx context.Context, logger *slog.Logger) error

// Options controls stage execution.
type Options struct {
	Logger    *slog.Logger
	StageName string
	// Summary is called after a successful stage to add completion attrs.
	Summary func() []logging.Attr
}

// Run executes fn under a stage-scoped context, logging start, completion and
// failure with the stage duration. The stage error is returned unchanged.
func Run(ctx context.Context, opts Options, fn Func) error {
	name := strings.TrimSpace(opts.StageName)
	if fn == nil {
		return fmt.Errorf("stage handler unavailable: %s", name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	start := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)

	if err := fn(stageCtx, stageLogger); err != nil {
		elapsed := time.Since(start)
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by cancellation",
				logging.Duration("stage_duration", elapsed),
			)
			return err
		}
		stageLogger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("resolved_outcome", services.FailureOutcome(err)),
			logging.Duration("stage_duration", elapsed),
			logging.Error(err),
		)
		return err
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
	}
	if opts.Summary != nil {
		attrs = append(attrs, opts.Summary()...)
	}
	stageLogger.Info("stage completed", logging.Args(attrs...)...)
	return nil
}
