package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one header line per record followed by an indented
// field list. Info and above show a curated subset of fields with friendly
// labels; debug records list every field under its raw key.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	prefix    string
	bound     []kv
}

type kv struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = slices.Clone(h.bound)
	for _, attr := range attrs {
		next.bound = appendFlat(next.bound, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.bound)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlat(fields, h.prefix, attr)
		return true
	})
	fields = lastValueWins(fields)

	var component, runID, stage, scene string
	body := make([]kv, 0, len(fields))
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
			continue
		case FieldRunID:
			runID = attrString(f.value)
		case FieldStage:
			stage = attrString(f.value)
		case FieldScene:
			scene = attrString(f.value)
		}
		body = append(body, f)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component != "" {
		fmt.Fprintf(&buf, " [%s]", component)
	}
	if subject := subjectLine(runID, stage, scene); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(" - ")
	buf.WriteString(msg)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')

	if record.Level < slog.LevelInfo {
		for _, f := range body {
			fmt.Fprintf(&buf, "    %s: %s\n", f.key, formatValue(f.value))
		}
	} else {
		shown, hidden := selectInfoFields(body, infoAttrLimit)
		for _, f := range shown {
			fmt.Fprintf(&buf, "    - %s: %s\n", f.label, f.value)
		}
		switch {
		case hidden == 1:
			buf.WriteString("    + 1 more field hidden\n")
		case hidden > 1:
			fmt.Fprintf(&buf, "    + %d more fields hidden\n", hidden)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// subjectLine renders "run 1a2b3c4d (clips) · scene 3". Run IDs are cut to
// eight characters.
func subjectLine(runID, stage, scene string) string {
	runID, stage, scene = strings.TrimSpace(runID), strings.TrimSpace(stage), strings.TrimSpace(scene)
	if len(runID) > 8 {
		runID = runID[:8]
	}
	var subject string
	switch {
	case runID != "" && stage != "":
		subject = fmt.Sprintf("run %s (%s)", runID, stage)
	case runID != "":
		subject = "run " + runID
	default:
		subject = stage
	}
	if scene == "" {
		return subject
	}
	if subject == "" {
		return "scene " + scene
	}
	return subject + " · scene " + scene
}

// appendFlat expands group values into dotted keys.
func appendFlat(dst []kv, prefix string, attr slog.Attr) []kv {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() != slog.KindGroup {
		return append(dst, kv{key: prefix + attr.Key, value: attr.Value})
	}
	if attr.Key != "" {
		prefix += attr.Key + "."
	}
	for _, member := range attr.Value.Group() {
		dst = appendFlat(dst, prefix, member)
	}
	return dst
}

// lastValueWins collapses repeated keys, keeping the first position and the
// last value.
func lastValueWins(fields []kv) []kv {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, seen := index[f.key]; seen {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
