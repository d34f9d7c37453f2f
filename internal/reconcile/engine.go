package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nytbot/internal/logging"
	"nytbot/internal/records"
	"nytbot/internal/services"
	"nytbot/internal/services/openlibrary"
)

// Catalog is the subset of the Open Library client used by the engine.
type Catalog interface {
	EditionByISBN(ctx context.Context, isbn string) (*openlibrary.Edition, error)
	Work(ctx context.Context, key string) (*openlibrary.Work, error)
	SaveWork(ctx context.Context, work *openlibrary.Work, comment string) error
	RequestImport(ctx context.Context, isbn string) error
}

// Mutator decides what a job ensures on a matching work.
type Mutator interface {
	// Name identifies the job in logs.
	Name() string
	// Comment is the edit comment attached to saves.
	Comment() string
	// Apply appends whatever item needs and returns a description of each
	// added entry. No additions means the work already carries everything.
	Apply(work *openlibrary.Work, item Item) ([]string, error)
}

// Observer is notified of every terminal outcome, in order.
type Observer interface {
	OnOutcome(ctx context.Context, outcome Outcome) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, outcome Outcome) error

// OnOutcome implements Observer.
func (f ObserverFunc) OnOutcome(ctx context.Context, outcome Outcome) error {
	return f(ctx, outcome)
}

// Options controls a reconciliation run.
type Options struct {
	DryRun        bool
	ImportMissing bool
	// Limit caps the number of items processed; 0 processes all.
	Limit int
}

// Engine drives items through the reconciliation state machine one at a time.
type Engine struct {
	catalog  Catalog
	mutator  Mutator
	observer Observer
	logger   *slog.Logger
	opts     Options
}

// NewEngine constructs an Engine. observer may be nil.
func NewEngine(catalog Catalog, mutator Mutator, observer Observer, logger *slog.Logger, opts Options) *Engine {
	return &Engine{
		catalog:  catalog,
		mutator:  mutator,
		observer: observer,
		logger:   logging.NewComponentLogger(logger, mutator.Name()),
		opts:     opts,
	}
}

// Run reconciles items sequentially. Per-record errors end that record in
// StateFailed. Authentication failures and cancellation stop the run; the
// summary gathered so far is returned with the error.
func (e *Engine) Run(ctx context.Context, items []Item) (*Summary, error) {
	summary := &Summary{Outcomes: []Outcome{}}
	if e.opts.Limit > 0 && len(items) > e.opts.Limit {
		items = items[:e.opts.Limit]
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := e.reconcile(ctx, item)
		if err != nil {
			return summary, err
		}
		summary.add(outcome)
		if e.observer != nil {
			if err := e.observer.OnOutcome(ctx, outcome); err != nil {
				return summary, fmt.Errorf("record outcome: %w", err)
			}
		}
	}
	logging.WithContext(ctx, e.logger).Info("reconciliation finished",
		logging.Int("total", summary.Total),
		logging.Int(string(StateTagged), summary.Tagged),
		logging.Int(string(StateAlreadyTagged), summary.AlreadyTagged),
		logging.Int(string(StateNotFound), summary.NotFound),
		logging.Int(string(StateFailed), summary.Failed),
		logging.Bool(logging.FieldDryRun, e.opts.DryRun),
		logging.Event("reconcile_finished"),
	)
	return summary, nil
}

// reconcile resolves one item. The returned error is non-nil only when the
// whole run must stop.
func (e *Engine) reconcile(ctx context.Context, item Item) (Outcome, error) {
	item.ISBN = records.NormalizeISBN(item.ISBN)
	ctx = services.WithISBN(ctx, item.ISBN)
	logger := logging.WithContext(ctx, e.logger).With(logging.ListName(item.ListName))
	outcome := Outcome{ISBN: item.ISBN, ListName: item.ListName, State: StateUnresolved, DryRun: e.opts.DryRun}

	if !records.ValidISBN(item.ISBN) {
		return e.failed(logger, outcome, "invalid isbn", nil), nil
	}

	edition, err := e.catalog.EditionByISBN(ctx, item.ISBN)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return e.notFound(ctx, logger, outcome)
	case err != nil:
		if stop(err) {
			return outcome, err
		}
		return e.failed(logger, outcome, "edition lookup failed", err), nil
	}

	outcome.WorkKey = edition.WorkKey()
	if outcome.WorkKey == "" {
		return e.failed(logger, outcome, "edition has no work", nil), nil
	}
	logger = logger.With(logging.WorkKey(outcome.WorkKey))

	work, err := e.catalog.Work(ctx, outcome.WorkKey)
	if err != nil {
		if stop(err) {
			return outcome, err
		}
		return e.failed(logger, outcome, "work lookup failed", err), nil
	}

	added, err := e.mutator.Apply(work, item)
	if err != nil {
		return e.failed(logger, outcome, "work update rejected", err), nil
	}
	if len(added) == 0 {
		outcome.State = StateAlreadyTagged
		logger.Debug("work already up to date", logging.Event("work_unchanged"))
		return outcome, nil
	}
	outcome.Added = added

	if e.opts.DryRun {
		outcome.State = StateTagged
		outcome.Detail = "dry run, not saved"
		logger.Info("dry run: work would be updated",
			logging.Any("added", added),
			logging.Bool(logging.FieldDryRun, true),
			logging.Event("work_update_planned"),
		)
		return outcome, nil
	}

	if err := e.catalog.SaveWork(ctx, work, e.mutator.Comment()); err != nil {
		if stop(err) {
			return outcome, err
		}
		return e.failed(logger, outcome, "work save failed", err), nil
	}
	outcome.State = StateTagged
	logger.Info("work updated",
		logging.Any("added", added),
		logging.Event("work_updated"),
	)
	return outcome, nil
}

func (e *Engine) notFound(ctx context.Context, logger *slog.Logger, outcome Outcome) (Outcome, error) {
	outcome.State = StateNotFound
	logger.Info("missing from Open Library",
		logging.Event("edition_missing"),
	)
	if !e.opts.ImportMissing || e.opts.DryRun {
		return outcome, nil
	}
	if err := e.catalog.RequestImport(ctx, outcome.ISBN); err != nil {
		if stop(err) {
			return outcome, err
		}
		outcome.Detail = "import request failed: " + err.Error()
		logging.WarnWithContext(logger, "import request failed", "import_failed",
			logging.Error(err),
			logging.Hint("request the import manually on openlibrary.org"),
			logging.Impact("book stays missing from the catalog"),
		)
		return outcome, nil
	}
	outcome.ImportRequested = true
	logger.Info("import requested", logging.Event("import_requested"))
	return outcome, nil
}

func (e *Engine) failed(logger *slog.Logger, outcome Outcome, reason string, err error) Outcome {
	outcome.State = StateFailed
	outcome.Detail = reason
	attrs := []logging.Attr{
		logging.Hint("rerun the job once the catalog is reachable"),
		logging.Impact("record skipped this run"),
	}
	if err != nil {
		outcome.Detail = reason + ": " + err.Error()
		attrs = append(attrs, logging.Error(err), logging.String("error_kind", services.Kind(err)))
	}
	logging.WarnWithContext(logger, strings.TrimSpace(reason)+"; record skipped", "record_failed", attrs...)
	return outcome
}

func stop(err error) bool {
	return services.IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
