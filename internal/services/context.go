package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	jobKey    contextKey = "job"
	isbnKey   contextKey = "isbn"
	dryRunKey contextKey = "dry_run"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithJob annotates context with the job name (collect, tag, link).
func WithJob(ctx context.Context, job string) context.Context {
	if job == "" {
		return ctx
	}
	return context.WithValue(ctx, jobKey, job)
}

// JobFromContext returns the job name if present.
func JobFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(jobKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithISBN annotates context with the ISBN of the record being processed.
func WithISBN(ctx context.Context, isbn string) context.Context {
	if isbn == "" {
		return ctx
	}
	return context.WithValue(ctx, isbnKey, isbn)
}

// ISBNFromContext returns the record ISBN if present.
func ISBNFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(isbnKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithDryRun marks the context as belonging to a dry run.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, dryRunKey, dryRun)
}

// DryRunFromContext reports whether the context was marked as a dry run.
func DryRunFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(dryRunKey).(bool)
	return v
}
