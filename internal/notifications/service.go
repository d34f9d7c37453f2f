package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"nytbot/internal/config"
)

const userAgent = "nytbot/0.1.0"

// RunInfo describes a finished run for notification purposes.
type RunInfo struct {
	Job      string
	RunID    string
	DryRun   bool
	Counts   map[string]int
	Duration time.Duration
}

// Service defines the notification surface used by the job runner.
type Service interface {
	NotifyRunCompleted(ctx context.Context, run RunInfo) error
	NotifyRunFailed(ctx context.Context, run RunInfo, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, run RunInfo) error {
	if !n.onSuccess {
		return nil
	}
	title := fmt.Sprintf("nytbot - %s complete", jobLabel(run.Job))
	if run.DryRun {
		title += " (dry run)"
	}
	message := formatCounts(run.Counts)
	if message == "" {
		message = "Nothing to do"
	}
	if run.Duration > 0 {
		message = fmt.Sprintf("%s in %s", message, run.Duration.Round(time.Second))
	}
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"nytbot", run.Job, "completed"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, run RunInfo, runErr error) error {
	if !n.onFailure {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Run ")
	builder.WriteString(shortID(run.RunID))
	builder.WriteString(" failed: ")
	if runErr != nil {
		builder.WriteString(strings.TrimSpace(runErr.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	if counts := formatCounts(run.Counts); counts != "" {
		builder.WriteString("\nPartial: ")
		builder.WriteString(counts)
	}
	return n.send(ctx, payload{
		title:    fmt.Sprintf("nytbot - %s failed", jobLabel(run.Job)),
		message:  builder.String(),
		tags:     []string{"nytbot", run.Job, "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "nytbot - Test",
		message:  "Notification system test",
		tags:     []string{"nytbot", "test"},
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

// formatCounts renders non-zero counters as "key=value" pairs in key order.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for key, value := range counts {
		if value != 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, counts[key]))
	}
	return strings.Join(parts, ", ")
}

func jobLabel(job string) string {
	job = strings.TrimSpace(job)
	if job == "" {
		return "run"
	}
	return job
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunInfo) error     { return nil }
func (noopService) NotifyRunFailed(context.Context, RunInfo, error) error { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
