package jobrun_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"nytbot/internal/config"
	"nytbot/internal/fileutil"
	"nytbot/internal/jobrun"
	"nytbot/internal/ledger"
	"nytbot/internal/services"
	"nytbot/internal/testsupport"
)

type ntfyRecorder struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func newNtfy(t *testing.T) (*ntfyRecorder, string) {
	t.Helper()
	rec := &ntfyRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.titles = append(rec.titles, r.Header.Get("Title"))
		rec.bodies = append(rec.bodies, string(body))
		rec.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return rec, server.URL + "/nytbot"
}

func (r *ntfyRecorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

func execute(t *testing.T, cfg *config.Config, inv jobrun.Invocation, body jobrun.Body) (*jobrun.Report, error) {
	t.Helper()
	return jobrun.NewRunner(cfg, jobrun.Options{LogLevel: "error"}).Execute(context.Background(), inv, body)
}

func TestExecuteRecordsCompletedRun(t *testing.T) {
	rec, topic := newNtfy(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfy(topic))

	report, err := execute(t, cfg, jobrun.Invocation{Job: "tag", InputFile: "result.json"}, func(ctx context.Context, run *jobrun.Run) (jobrun.Result, error) {
		if got, _ := services.RunIDFromContext(ctx); got != run.ID {
			t.Errorf("context run id = %q, want %q", got, run.ID)
		}
		return jobrun.Result{Counts: map[string]int{"tagged": 2, "not_found": 1}}, nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Status != ledger.StatusCompleted {
		t.Fatalf("status = %q, want completed", report.Status)
	}

	var onDisk map[string]any
	if err := fileutil.ReadJSON(cfg.ResultsPath("tag"), &onDisk); err != nil {
		t.Fatalf("read report: %v", err)
	}
	if onDisk["run_id"] != report.RunID || onDisk["status"] != "completed" {
		t.Fatalf("unexpected report on disk: %v", onDisk)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	run, err := store.GetRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != ledger.StatusCompleted || run.InputFile != "result.json" {
		t.Fatalf("unexpected ledger run: %+v", run)
	}
	if diff := cmp.Diff(map[string]int{"tagged": 2, "not_found": 1}, run.Counts); diff != "" {
		t.Fatalf("ledger counts mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"nytbot - tag complete"}, rec.Titles()); diff != "" {
		t.Fatalf("notification titles mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteFailedBodyStillReports(t *testing.T) {
	rec, topic := newNtfy(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfy(topic))
	boom := errors.New("boom")

	report, err := execute(t, cfg, jobrun.Invocation{Job: "link"}, func(context.Context, *jobrun.Run) (jobrun.Result, error) {
		return jobrun.Result{Counts: map[string]int{"tagged": 1}}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected body error, got %v", err)
	}
	if report == nil || report.Status != ledger.StatusFailed || report.Error != "boom" {
		t.Fatalf("unexpected report: %+v", report)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	run, err := store.GetRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != ledger.StatusFailed || run.Error != "boom" {
		t.Fatalf("unexpected ledger run: %+v", run)
	}

	titles := rec.Titles()
	if len(titles) != 1 || titles[0] != "nytbot - link failed" {
		t.Fatalf("unexpected notifications: %v", titles)
	}
	if !strings.Contains(rec.bodies[0], "boom") {
		t.Fatalf("failure body missing error: %q", rec.bodies[0])
	}
}

func TestExecuteCancelledStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	report, err := execute(t, cfg, jobrun.Invocation{Job: "collect"}, func(context.Context, *jobrun.Run) (jobrun.Result, error) {
		return jobrun.Result{}, context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if report.Status != ledger.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", report.Status)
	}
	if got := jobrun.ExitCode(err); got != 130 {
		t.Fatalf("ExitCode = %d, want 130", got)
	}
}

func TestExecuteRefusesConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	called := false
	_, err = execute(t, cfg, jobrun.Invocation{Job: "tag"}, func(context.Context, *jobrun.Run) (jobrun.Result, error) {
		called = true
		return jobrun.Result{}, nil
	})
	if !errors.Is(err, jobrun.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if called {
		t.Fatal("body ran without the lock")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"failure", errors.New("x"), 1},
		{"auth", services.Wrap(services.ErrAuthentication, "nyt", "get", "bad key", nil), 2},
		{"config", services.Wrap(services.ErrConfiguration, "tagger", "check config", "missing", nil), 2},
		{"cancelled", context.Canceled, 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jobrun.ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
