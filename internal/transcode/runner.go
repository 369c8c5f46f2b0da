package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result captures the output of one process invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an external command. Implementations return a non-nil error
// whenever the process could not start or exited non-zero; Result is filled
// in as far as it is known.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args []string) (Result, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args []string) (Result, error) {
	return f(ctx, name, args)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes name with args and captures stdout and stderr.
func (ExecRunner) Run(ctx context.Context, name string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s: %w", name, ctxErr)
		}
		return result, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}
