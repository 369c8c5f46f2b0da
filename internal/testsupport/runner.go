package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"highlighter/internal/transcode"
)

// Call records one command issued through a FakeRunner.
type Call struct {
	Name string
	Args []string
}

// Contains reports whether the call's arguments include arg.
func (c Call) Contains(arg string) bool {
	return slices.Contains(c.Args, arg)
}

// Output returns the final argument, which is the output path for ffmpeg
// invocations.
func (c Call) Output() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// String joins the command for failure messages.
func (c Call) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ErrScripted is returned by FakeRunner handlers that simulate a failed process.
var ErrScripted = errors.New("scripted command failure")

// FakeRunner records commands and answers them through Handler. With a nil
// Handler every command succeeds and, when the last argument looks like a
// media file, a small placeholder is written there.
type FakeRunner struct {
	Handler func(call Call) (transcode.Result, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements transcode.Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args []string) (transcode.Result, error) {
	call := Call{Name: name, Args: slices.Clone(args)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return transcode.Result{ExitCode: -1}, err
	}
	if f.Handler != nil {
		return f.Handler(call)
	}
	return WriteOutput(call)
}

// Calls returns a snapshot of recorded commands in issue order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsContaining returns recorded commands whose arguments include arg.
func (f *FakeRunner) CallsContaining(arg string) []Call {
	var out []Call
	for _, call := range f.Calls() {
		if call.Contains(arg) {
			out = append(out, call)
		}
	}
	return out
}

// WriteOutput simulates a successful ffmpeg run by writing a small file at the
// call's output path when it has a media extension.
func WriteOutput(call Call) (transcode.Result, error) {
	out := call.Output()
	switch strings.ToLower(filepath.Ext(out)) {
	case ".mp4", ".mov", ".mkv":
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return transcode.Result{ExitCode: 1}, err
		}
		if err := os.WriteFile(out, []byte("fake media payload"), 0o644); err != nil {
			return transcode.Result{ExitCode: 1}, err
		}
	}
	return transcode.Result{}, nil
}

// Fail returns a failed process result carrying stderr.
func Fail(stderr string) (transcode.Result, error) {
	return transcode.Result{Stderr: stderr, ExitCode: 1}, ErrScripted
}
