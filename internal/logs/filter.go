package logs

import (
	"encoding/json"
	"strings"

	"highlighter/internal/logging"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects run log lines. Zero values match everything.
type Filter struct {
	// MinLevel is one of debug, info, warn, error.
	MinLevel string
	Stage    string
}

// Active reports whether the filter excludes anything.
func (f Filter) Active() bool {
	return f.MinLevel != "" || f.Stage != ""
}

// Match reports whether line passes the filter. Lines that are not JSON
// objects always pass.
func (f Filter) Match(line string) bool {
	if !f.Active() {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return true
	}
	if f.MinLevel != "" {
		level, _ := fields["level"].(string)
		floor, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[strings.ToLower(level)] < floor {
			return false
		}
	}
	if f.Stage != "" {
		stage, _ := fields[logging.FieldStage].(string)
		if stage != f.Stage {
			return false
		}
	}
	return true
}

// Apply returns the lines that match.
func (f Filter) Apply(lines []string) []string {
	if !f.Active() {
		return lines
	}
	out := lines[:0:0]
	for _, line := range lines {
		if f.Match(line) {
			out = append(out, line)
		}
	}
	return out
}
