package transcode

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"highlighter/internal/logging"
	"highlighter/internal/services"
)

const stderrTailLines = 12

// Observer receives the outcome of every Execute call.
type Observer interface {
	ObserveCommand(description string, attempts int, downgraded bool, elapsed time.Duration, err error)
}

// Executor runs ffmpeg commands with one downgrade-and-retry step.
type Executor struct {
	runner   Runner
	binary   string
	policy   RetryPolicy
	logger   *slog.Logger
	observer Observer
	hwGate   chan struct{}
}

// Option customises an Executor.
type Option func(*Executor)

// WithObserver reports command outcomes to o.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor builds an Executor invoking binary through runner.
func NewExecutor(runner Runner, binary string, policy RetryPolicy, opts ...Option) *Executor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	e := &Executor{
		runner: runner,
		binary: binary,
		policy: policy,
		hwGate: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "transcode")
	return e
}

// Policy returns the retry policy the executor applies.
func (e *Executor) Policy() RetryPolicy {
	return e.policy
}

// Report describes how a successful command ran.
type Report struct {
	Attempts int
	// Downgraded is true when the command only succeeded on the software
	// retry, so its output was encoded on the CPU.
	Downgraded bool
}

// Execute runs args and, on failure, retries exactly once with the downgraded
// command. Commands that carry hardware flags hold the hardware gate for the
// whole call.
func (e *Executor) Execute(ctx context.Context, args []string, description string) error {
	_, err := e.Run(ctx, args, description)
	return err
}

// Run is Execute that also reports which attempt succeeded.
func (e *Executor) Run(ctx context.Context, args []string, description string) (Report, error) {
	start := time.Now()
	logger := logging.WithContext(ctx, e.logger)

	if e.policy.IsHardware(args) {
		select {
		case e.hwGate <- struct{}{}:
			defer func() { <-e.hwGate }()
		case <-ctx.Done():
			return Report{}, ctx.Err()
		}
	}

	attempt := e.policy.First(args)
	for {
		result, err := e.runner.Run(ctx, e.binary, attempt.Args)
		if err == nil {
			if attempt.Downgraded {
				logger.Info("command recovered on software encoder",
					logging.String("description", description),
					logging.Int("attempt", attempt.Number),
					logging.String(logging.FieldEventType, "command_recovered"),
				)
			}
			e.observe(description, attempt, start, nil)
			return Report{Attempts: attempt.Number, Downgraded: attempt.Downgraded}, nil
		}

		kind := ClassifyFailure(result.Stderr)
		tail := Tail(result.Stderr, stderrTailLines)
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.observe(description, attempt, start, ctxErr)
			return Report{}, ctxErr
		}

		next, ok := e.policy.Next(attempt)
		if !ok {
			cmdErr := &CommandError{
				Description: description,
				Args:        attempt.Args,
				Attempts:    attempt.Number,
				ExitCode:    result.ExitCode,
				Kind:        kind,
				StderrTail:  tail,
				Err:         err,
			}
			e.observe(description, attempt, start, cmdErr)
			return Report{}, cmdErr
		}

		attrs := []logging.Attr{
			logging.String("description", description),
			logging.Int("attempt", attempt.Number),
			logging.Int("exit_code", result.ExitCode),
			logging.String("failure_kind", string(kind)),
			logging.String("stderr_tail", tail),
			logging.Error(err),
		}
		if kind == FailureDeviceLost {
			logging.WarnWithContext(logger, "hardware encoder lost during command; retrying on CPU", "encoder_runtime_fallback",
				append(attrs,
					logging.String(logging.FieldErrorHint, "check nvidia driver state (nvidia-smi) and CUDA availability"),
					logging.String(logging.FieldImpact, "this command is re-encoded on the CPU and runs slower"),
				)...)
		} else {
			logging.WarnWithContext(logger, "command failed; retrying without hardware acceleration", "command_retry",
				append(attrs,
					logging.String(logging.FieldErrorHint, "inspect stderr_tail for the ffmpeg error"),
					logging.String(logging.FieldImpact, "one retry with the software profile"),
				)...)
		}
		attempt = next
	}
}

func (e *Executor) observe(description string, attempt Attempt, start time.Time, err error) {
	if e.observer == nil {
		return
	}
	e.observer.ObserveCommand(description, attempt.Number, attempt.Downgraded, time.Since(start), err)
}

// IsCommandError reports whether err carries a *CommandError.
func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}

// WrapStage tags a command failure with the stage and operation it broke.
func WrapStage(stage, operation, artifact string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrExternalTool, stage, operation, artifact, err)
}
