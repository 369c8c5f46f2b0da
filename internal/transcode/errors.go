package transcode

import (
	"fmt"
	"strings"

	"highlighter/internal/services"
)

// CommandError reports a command that failed on every permitted attempt.
type CommandError struct {
	Description string
	Args        []string
	Attempts    int
	ExitCode    int
	Kind        FailureKind
	StderrTail  string
	Err         error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed after %d attempt", e.Description, e.Attempts)
	if e.Attempts != 1 {
		b.WriteByte('s')
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if tail := strings.TrimSpace(e.StderrTail); tail != "" {
		b.WriteString(": ")
		b.WriteString(lastLine(tail))
	}
	return b.String()
}

// Unwrap exposes both the external tool marker and the underlying cause.
func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
