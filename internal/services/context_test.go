package services_test

import (
	"context"
	"testing"

	"nytbot/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithJob(ctx, "tag")
	ctx = services.WithISBN(ctx, "9780000000001")
	ctx = services.WithDryRun(ctx, true)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if job, ok := services.JobFromContext(ctx); !ok || job != "tag" {
		t.Fatalf("unexpected job: %v %v", job, ok)
	}
	if isbn, ok := services.ISBNFromContext(ctx); !ok || isbn != "9780000000001" {
		t.Fatalf("unexpected isbn: %v %v", isbn, ok)
	}
	if !services.DryRunFromContext(ctx) {
		t.Fatal("expected dry run flag")
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJob(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.JobFromContext(ctx); ok {
		t.Fatal("expected no job value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if services.DryRunFromContext(ctx) {
		t.Fatal("expected dry run to default to false")
	}
}
