package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"highlighter/internal/config"
)

const userAgent = "highlighter/0.1"

// Report is the subset of a finished run that notifications describe.
type Report struct {
	RunID          string
	Output         string
	OutputMB       float64
	VerticalOutput string
	ScenesDetected int
	ClipsBuilt     int
	Duration       time.Duration
}

// Service defines the notification surface used by the workflow.
type Service interface {
	NotifyRunCompleted(ctx context.Context, report Report) error
	NotifyNoScenes(ctx context.Context, report Report) error
	NotifyRunFailed(ctx context.Context, err error, outcome string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notify.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notify.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, report Report) error {
	message := fmt.Sprintf("🎬 %s ready: %d clips from %d scenes (%.1f MB) in %s",
		filepath.Base(report.Output), report.ClipsBuilt, report.ScenesDetected, report.OutputMB, roundDuration(report.Duration))
	if report.VerticalOutput != "" {
		message += "\nVertical: " + filepath.Base(report.VerticalOutput)
	}
	return n.send(ctx, payload{
		title:    "Highlighter - Highlight Ready",
		message:  message,
		tags:     []string{"highlighter", "run", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyNoScenes(ctx context.Context, report Report) error {
	return n.send(ctx, payload{
		title:   "Highlighter - No Highlight",
		message: fmt.Sprintf("None of the %d detected scenes survived selection", report.ScenesDetected),
		tags:    []string{"highlighter", "run", "empty"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error, outcome string) error {
	var builder strings.Builder
	builder.WriteString("❌ Run ")
	if outcome = strings.TrimSpace(outcome); outcome != "" {
		builder.WriteString(outcome)
	} else {
		builder.WriteString("failed")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Highlighter - Error",
		message:  builder.String(),
		tags:     []string{"highlighter", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Highlighter - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"highlighter", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func roundDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, Report) error     { return nil }
func (noopService) NotifyNoScenes(context.Context, Report) error         { return nil }
func (noopService) NotifyRunFailed(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
