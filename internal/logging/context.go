package logging

import (
	"context"
	"log/slog"

	"nytbot/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for run identifiers.
	FieldRunID = "run_id"
	// FieldJob is the standardized structured logging key for job names.
	FieldJob = "job"
	// FieldISBN is the standardized structured logging key for record ISBNs.
	FieldISBN = "isbn"
	// FieldListName is the standardized structured logging key for best-seller list names.
	FieldListName = "list_name"
	// FieldWorkKey is the standardized structured logging key for Open Library work keys.
	FieldWorkKey = "work_key"
	// FieldDryRun flags log lines emitted during a dry run.
	FieldDryRun = "dry_run"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step after a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if job, ok := services.JobFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJob, job))
	}
	if isbn, ok := services.ISBNFromContext(ctx); ok {
		fields = append(fields, ISBN(isbn))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
