package jobrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"nytbot/internal/config"
	"nytbot/internal/fileutil"
	"nytbot/internal/ledger"
	"nytbot/internal/logging"
	"nytbot/internal/notifications"
	"nytbot/internal/reconcile"
	"nytbot/internal/services"
)

// ErrAlreadyRunning is returned when another process holds the run lock.
var ErrAlreadyRunning = errors.New("another nytbot run is already in progress")

// Invocation names one job run request.
type Invocation struct {
	Job       string
	InputFile string
	DryRun    bool
}

// Run is handed to a job body while it executes.
type Run struct {
	ID     string
	Job    string
	DryRun bool
	Logger *slog.Logger

	store *ledger.Store
}

// Outcomes returns an observer that stores every reconciliation outcome in
// the run ledger.
func (r *Run) Outcomes() reconcile.Observer {
	return reconcile.ObserverFunc(func(ctx context.Context, o reconcile.Outcome) error {
		if r.store == nil {
			return nil
		}
		return r.store.RecordOutcome(ctx, ledger.Outcome{
			RunID:    r.ID,
			ISBN:     o.ISBN,
			ListName: o.ListName,
			WorkKey:  o.WorkKey,
			State:    string(o.State),
			Detail:   o.Detail,
		})
	})
}

// Result is what a job body reports back.
type Result struct {
	Counts  map[string]int
	Details any
}

// Body is the work performed under the run lock.
type Body func(ctx context.Context, run *Run) (Result, error)

// Report is the record written to the results directory after every run.
type Report struct {
	RunID      string         `json:"run_id"`
	Job        string         `json:"job"`
	InputFile  string         `json:"input_file,omitempty"`
	DryRun     bool           `json:"dry_run"`
	Status     ledger.Status  `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Counts     map[string]int `json:"counts"`
	Error      string         `json:"error,omitempty"`
	Details    any            `json:"details,omitempty"`
	ReportPath string         `json:"-"`
	LogPath    string         `json:"-"`
}

// Options configures a Runner.
type Options struct {
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// Notifier overrides the notifier built from config.
	Notifier notifications.Service
}

// Runner executes jobs with the single-instance lock, run ledger, report
// file, notifications and log retention around them.
type Runner struct {
	cfg  *config.Config
	opts Options
}

// NewRunner constructs a Runner.
func NewRunner(cfg *config.Config, opts Options) *Runner {
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(cfg)
	}
	return &Runner{cfg: cfg, opts: opts}
}

// Execute runs body. The report is written even when body fails; the body's
// error is returned unchanged.
func (r *Runner) Execute(ctx context.Context, inv Invocation, body Body) (*Report, error) {
	if r.cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, r.cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	runID := uuid.NewString()
	logger, err := r.logger(runID)
	if err != nil {
		return nil, err
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx := services.WithRunID(signalCtx, runID)
	runCtx = services.WithJob(runCtx, inv.Job)
	runCtx = services.WithDryRun(runCtx, inv.DryRun)
	runLogger := logging.WithContext(runCtx, logger)

	store, err := ledger.Open(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	defer store.Close()

	report := &Report{
		RunID:      runID,
		Job:        inv.Job,
		InputFile:  inv.InputFile,
		DryRun:     inv.DryRun,
		Status:     ledger.StatusRunning,
		StartedAt:  time.Now().UTC(),
		ReportPath: r.cfg.ResultsPath(inv.Job),
		LogPath:    logging.RunLogPath(r.cfg.Paths.LogDir, runID),
	}
	if err := store.BeginRun(runCtx, ledger.Run{
		ID:        runID,
		Job:       inv.Job,
		InputFile: inv.InputFile,
		DryRun:    inv.DryRun,
		StartedAt: report.StartedAt,
	}); err != nil {
		return nil, err
	}
	runLogger.Info("run started",
		logging.String("input_file", inv.InputFile),
		logging.Bool(logging.FieldDryRun, inv.DryRun),
		logging.Event("run_started"),
	)

	run := &Run{ID: runID, Job: inv.Job, DryRun: inv.DryRun, Logger: runLogger, store: store}
	result, bodyErr := body(runCtx, run)

	report.FinishedAt = time.Now().UTC()
	report.Counts = result.Counts
	if report.Counts == nil {
		report.Counts = map[string]int{}
	}
	report.Details = result.Details
	report.Status = statusFor(bodyErr)
	if bodyErr != nil {
		report.Error = bodyErr.Error()
	}

	// The run context may already be cancelled; bookkeeping must still land.
	finishCtx := context.WithoutCancel(runCtx)
	if err := store.FinishRun(finishCtx, runID, report.Status, report.Counts, bodyErr); err != nil {
		logging.WarnWithContext(runLogger, "run ledger not updated", "ledger_update_failed",
			logging.Error(err),
			logging.Hint("check permissions on paths.state_dir"),
			logging.Impact("history shows the run as still running"),
		)
	}
	if err := fileutil.WriteJSONAtomic(report.ReportPath, report); err != nil {
		logging.WarnWithContext(runLogger, "run report not written", "report_write_failed",
			logging.Error(err),
			logging.Hint("check permissions on paths.results_dir"),
			logging.Impact("run results only available via history"),
		)
	}
	r.notify(finishCtx, runLogger, report, bodyErr)
	logging.PruneRunLogs(runLogger, r.cfg.Paths.LogDir, r.cfg.Logging.RetentionDays, report.LogPath)

	if bodyErr != nil {
		logging.ErrorWithContext(runLogger, "run failed", "run_failed",
			logging.Error(bodyErr),
			logging.String("error_kind", services.Kind(bodyErr)),
			logging.String("status", string(report.Status)),
		)
	} else {
		runLogger.Info("run finished",
			logging.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
			logging.String("report", report.ReportPath),
			logging.Event("run_finished"),
		)
	}
	return report, bodyErr
}

func (r *Runner) logger(runID string) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(r.cfg, runID, r.opts.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, report *Report, runErr error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	info := notifications.RunInfo{
		Job:      report.Job,
		RunID:    report.RunID,
		DryRun:   report.DryRun,
		Counts:   report.Counts,
		Duration: report.FinishedAt.Sub(report.StartedAt),
	}
	var err error
	if runErr != nil {
		err = r.opts.Notifier.NotifyRunFailed(ctx, info, runErr)
	} else {
		err = r.opts.Notifier.NotifyRunCompleted(ctx, info)
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification not delivered", "notify_failed",
			logging.Error(err),
			logging.Hint("check notifications.ntfy_topic"),
			logging.Impact("no push notification for this run"),
		)
	}
}

func statusFor(err error) ledger.Status {
	switch {
	case err == nil:
		return ledger.StatusCompleted
	case errors.Is(err, context.Canceled):
		return ledger.StatusCancelled
	default:
		return ledger.StatusFailed
	}
}

// ExitCode maps a run error to a process exit status: 0 success, 1 failure,
// 2 configuration or authentication problems, 130 cancelled.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case services.IsFatal(err):
		return 2
	default:
		return 1
	}
}
