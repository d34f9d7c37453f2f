package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nytbot/internal/config"
	"nytbot/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newRecorder(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		msgs []captured
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		msgs = append(msgs, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), msgs...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFailed(context.Background(), notifications.RunInfo{Job: "tag"}, errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyRunCompleted(t *testing.T) {
	server, messages := newRecorder(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.NotifyRunCompleted(context.Background(), notifications.RunInfo{
		Job:      "tag",
		RunID:    "0123456789abcdef",
		DryRun:   true,
		Counts:   map[string]int{"tagged": 3, "not_found": 1, "failed": 0},
		Duration: 90 * time.Second,
	})
	if err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}

	got := messages()
	if len(got) != 1 {
		t.Fatalf("expected one message, got %d", len(got))
	}
	msg := got[0]
	if msg.title != "nytbot - tag complete (dry run)" {
		t.Fatalf("unexpected title %q", msg.title)
	}
	if msg.body != "not_found=1, tagged=3 in 1m30s" {
		t.Fatalf("unexpected body %q", msg.body)
	}
	if msg.tags != "nytbot,tag,completed" || msg.priority != "" {
		t.Fatalf("unexpected headers %+v", msg)
	}
}

func TestNotifyRunFailed(t *testing.T) {
	server, messages := newRecorder(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.NotifyRunFailed(context.Background(), notifications.RunInfo{
		Job:    "collect",
		RunID:  "0123456789abcdef",
		Counts: map[string]int{"best_sellers": 5},
	}, errors.New("authentication error: nyt: overview"))
	if err != nil {
		t.Fatalf("NotifyRunFailed: %v", err)
	}

	msg := messages()[0]
	if msg.title != "nytbot - collect failed" || msg.priority != "high" {
		t.Fatalf("unexpected headers %+v", msg)
	}
	if !strings.HasPrefix(msg.body, "Run 01234567 failed: authentication error") || !strings.Contains(msg.body, "Partial: best_sellers=5") {
		t.Fatalf("unexpected body %q", msg.body)
	}
}

func TestNotificationTogglesAreHonored(t *testing.T) {
	server, messages := newRecorder(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnSuccess = false
	cfg.Notifications.OnFailure = false

	svc := notifications.NewService(&cfg)
	_ = svc.NotifyRunCompleted(context.Background(), notifications.RunInfo{Job: "link"})
	_ = svc.NotifyRunFailed(context.Background(), notifications.RunInfo{Job: "link"}, errors.New("x"))
	if got := messages(); len(got) != 0 {
		t.Fatalf("expected no messages, got %+v", got)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if got := messages(); len(got) != 1 || got[0].priority != "low" {
		t.Fatalf("expected test message, got %+v", got)
	}
}

func TestNtfyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
