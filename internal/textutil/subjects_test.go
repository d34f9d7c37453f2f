package textutil_test

import (
	"testing"

	"nytbot/internal/textutil"
)

func TestSubjectKeyFoldsCaseAndSpace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"New York Times bestseller", "new york times bestseller"},
		{"  new york  TIMES bestseller \t", "new york times bestseller"},
		{"nyt:hardcover-fiction=2024-01-07", "nyt:hardcover-fiction=2024-01-07"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := textutil.SubjectKey(tc.in); got != tc.want {
			t.Errorf("SubjectKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSubjectSet(t *testing.T) {
	set := textutil.NewSubjectSet([]string{"Fiction", "New York Times Bestseller", "  "})
	if len(set) != 2 {
		t.Fatalf("expected blank subject to be ignored, got %d entries", len(set))
	}
	if !set.Has("new york times bestseller") {
		t.Fatal("expected case-insensitive match")
	}
	if set.Has("Nonfiction") {
		t.Fatal("unexpected match")
	}
}

func TestListDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hardcover-fiction", "Hardcover Fiction"},
		{"combined-print-and-e-book-fiction", "Combined Print And E Book Fiction"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := textutil.ListDisplayName(tc.in); got != tc.want {
			t.Errorf("ListDisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
