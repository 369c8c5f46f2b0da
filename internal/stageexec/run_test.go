package stageexec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"highlighter/internal/logging"
	"highlighter/internal/services"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRunAnnotatesStage(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	err := Run(context.Background(), Options{
		Logger:    newBufferLogger(&buf),
		StageName: "scoring",
		Summary: func() []logging.Attr {
			return []logging.Attr{logging.Int("scenes_selected", 3)}
		},
	}, func(ctx context.Context, _ *slog.Logger) error {
		seen, _ = services.StageFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen != "scoring" {
		t.Fatalf("stage in context = %q, want scoring", seen)
	}
	out := buf.String()
	for _, want := range []string{`"event_type":"stage_start"`, `"event_type":"stage_complete"`, `"scenes_selected":3`, `"stage":"scoring"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestRunReturnsStageError(t *testing.T) {
	var buf bytes.Buffer
	stageErr := services.Wrap(services.ErrExternalTool, "clips", "extract", "ffmpeg failed", errors.New("exit 1"))
	err := Run(context.Background(), Options{Logger: newBufferLogger(&buf), StageName: "clips"},
		func(context.Context, *slog.Logger) error { return stageErr })
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(buf.String(), `"event_type":"stage_failure"`) {
		t.Fatalf("expected stage_failure log, got:\n%s", buf.String())
	}
}

func TestRunSkipsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := Run(ctx, Options{StageName: "ingest"}, func(context.Context, *slog.Logger) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatal("stage body should not run after cancellation")
	}
}

func TestRunRequiresHandler(t *testing.T) {
	if err := Run(context.Background(), Options{StageName: "assembly"}, nil); err == nil {
		t.Fatal("expected error for nil stage body")
	}
}
