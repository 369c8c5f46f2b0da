package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

// labelColumn is the padded width of the label before the status badge.
const labelColumn = 18

var headerColors = text.Colors{text.Bold, text.FgBlue}

var statusStyles = [...]struct {
	badge  string
	colors text.Colors
}{
	statusInfo:  {"[INFO]", text.Colors{text.FgBlue}},
	statusOK:    {"[OK]", text.Colors{text.FgGreen}},
	statusWarn:  {"[WARN]", text.Colors{text.FgYellow}},
	statusError: {"[ERROR]", text.Colors{text.FgRed}},
}

// renderStatusLine formats "  Label:            [OK] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	if kind < 0 || int(kind) >= len(statusStyles) {
		kind = statusInfo
	}
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-*s %s", labelColumn, label+":", style.badge)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = text.Colors{text.FgBlue}.Sprint(lines[i])
		}
	}
	return lines
}

// shouldColorize reports whether w is an interactive terminal. NO_COLOR
// disables color regardless.
func shouldColorize(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
