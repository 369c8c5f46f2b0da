package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSubjectLine(t *testing.T) {
	tests := []struct {
		run, stage, scene string
		want              string
	}{
		{"0123456789", "clips", "4", "run 01234567 (clips) · scene 4"},
		{"abc", "", "", "run abc"},
		{"", "assembly", "", "assembly"},
		{"", "", "2", "scene 2"},
		{"", "", "", ""},
	}
	for _, tc := range tests {
		if got := subjectLine(tc.run, tc.stage, tc.scene); got != tc.want {
			t.Errorf("subjectLine(%q, %q, %q) = %q, want %q", tc.run, tc.stage, tc.scene, got, tc.want)
		}
	}
}

func TestSelectInfoFieldsOrdersAndHides(t *testing.T) {
	fields := []kv{
		{key: "custom_note", value: slog.StringValue("kept")},
		{key: "sharpness", value: slog.Float64Value(3.2)},
		{key: "output_bytes", value: slog.Int64Value(3 * 1024 * 1024)},
		{key: FieldEventType, value: slog.StringValue("clip_built")},
		{key: FieldRunID, value: slog.StringValue("abc")},
		{key: "stage_duration", value: slog.DurationValue(1500 * time.Millisecond)},
	}
	shown, hidden := selectInfoFields(fields, 3)
	if hidden != 2 {
		t.Fatalf("hidden = %d, want 2 (one debug key, one over limit)", hidden)
	}
	want := []infoField{{"Event", "clip_built"}, {"Output Size", "3.0 MiB"}, {"Duration", "1.5s"}}
	if len(shown) != len(want) {
		t.Fatalf("shown = %+v", shown)
	}
	for i := range want {
		if shown[i] != want[i] {
			t.Fatalf("field %d = %+v, want %+v", i, shown[i], want[i])
		}
	}
}

func TestConsoleHandlerGroupsAndOverrides(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	logger := slog.New(newConsoleHandler(&buf, lvl, false)).
		With(String("clip_count", "1")).
		WithGroup("clip").
		With(Int("index", 2))
	logger.Debug("built", String("clip_count", "ignored-in-group"))

	out := buf.String()
	for _, want := range []string{"DEBUG - built", "    clip_count: 1", "    clip.index: 2", "    clip.clip_count: ignored-in-group"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	for in, want := range map[string]string{"plain": "plain", "two words": `"two words"`, "": `""`, "a=b": `"a=b"`} {
		if got := quoteIfNeeded(in); got != want {
			t.Errorf("quoteIfNeeded(%q) = %q, want %q", in, got, want)
		}
	}
}
