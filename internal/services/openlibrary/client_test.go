package openlibrary_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nytbot/internal/services"
	"nytbot/internal/services/openlibrary"
)

func newClient(t *testing.T, baseURL string, opts ...openlibrary.Option) *openlibrary.Client {
	t.Helper()
	opts = append([]openlibrary.Option{openlibrary.WithRequestsPerSecond(0), openlibrary.WithBackoff(0)}, opts...)
	client, err := openlibrary.New(baseURL, "nytbot-test", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestEditionByISBNResolvesWork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/isbn/9780000000001.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "nytbot-test" {
			t.Errorf("expected user agent, got %q", got)
		}
		_, _ = w.Write([]byte(`{"key":"/books/OL1M","works":[{"key":"/works/OL1W"}]}`))
	}))
	t.Cleanup(server.Close)

	edition, err := newClient(t, server.URL).EditionByISBN(context.Background(), "9780000000001")
	if err != nil {
		t.Fatalf("EditionByISBN returned error: %v", err)
	}
	if edition.WorkKey() != "/works/OL1W" {
		t.Fatalf("unexpected work key %q", edition.WorkKey())
	}
}

func TestEditionByISBNNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	_, err := newClient(t, server.URL).EditionByISBN(context.Background(), "9780000000001")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReadsRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"key":"/works/OL1W","title":"Example"}`))
	}))
	t.Cleanup(server.Close)

	work, err := newClient(t, server.URL, openlibrary.WithMaxRetries(2)).Work(context.Background(), "/works/OL1W")
	if err != nil {
		t.Fatalf("Work returned error: %v", err)
	}
	if work.Title() != "Example" || calls.Load() != 2 {
		t.Fatalf("unexpected result title=%q calls=%d", work.Title(), calls.Load())
	}
}

func TestWorkRoundTripsUnknownFields(t *testing.T) {
	const doc = `{"key":"/works/OL1W","title":"Example","covers":[1,2],"subjects":["Fiction"],"revision":7}`
	var saved map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(doc))
		case http.MethodPut:
			if r.URL.Path != "/works/OL1W.json" {
				t.Errorf("unexpected save path %q", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &saved); err != nil {
				t.Errorf("decode saved body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	work, err := client.Work(context.Background(), "/works/OL1W")
	if err != nil {
		t.Fatalf("Work returned error: %v", err)
	}
	if err := work.AddSubjects("New York Times bestseller"); err != nil {
		t.Fatalf("AddSubjects: %v", err)
	}
	if err := work.AddLink(openlibrary.NewLink("New York Times review", "https://nyt.example/r")); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := client.SaveWork(context.Background(), work, "Add NYT bestseller tag"); err != nil {
		t.Fatalf("SaveWork returned error: %v", err)
	}

	want := map[string]any{
		"key":      "/works/OL1W",
		"title":    "Example",
		"covers":   []any{float64(1), float64(2)},
		"subjects": []any{"Fiction", "New York Times bestseller"},
		"revision": float64(7),
		"links": []any{map[string]any{
			"title": "New York Times review",
			"url":   "https://nyt.example/r",
			"type":  map[string]any{"key": "/type/link"},
		}},
		"_comment": "Add NYT bestseller tag",
	}
	if diff := cmp.Diff(want, saved); diff != "" {
		t.Fatalf("saved document mismatch (-want +got):\n%s", diff)
	}
	local, err := json.Marshal(work)
	if err != nil {
		t.Fatalf("marshal work: %v", err)
	}
	if strings.Contains(string(local), "_comment") {
		t.Fatalf("edit comment leaked into caller's work: %s", local)
	}
}

func TestSaveWorkRejectedWithoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	work := &openlibrary.Work{}
	if err := json.Unmarshal([]byte(`{"key":"/works/OL1W"}`), work); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	err := newClient(t, server.URL).SaveWork(context.Background(), work, "")
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/account/login":
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("decode login body: %v", err)
			}
			if creds["access"] != "ak" || creds["secret"] != "sk" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/works/OL1W.json":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "abc" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL)
	if err := client.Login(context.Background(), "ak", "bad"); !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error for bad secret, got %v", err)
	}
	if err := client.Login(context.Background(), "ak", "sk"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	work := &openlibrary.Work{}
	if err := json.Unmarshal([]byte(`{"key":"/works/OL1W"}`), work); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := client.SaveWork(context.Background(), work, "edit"); err != nil {
		t.Fatalf("SaveWork returned error: %v", err)
	}
}

func TestLoginRequiresKeys(t *testing.T) {
	client := newClient(t, "https://openlibrary.example")
	if err := client.Login(context.Background(), "", "sk"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRequestImportHitsISBNPage(t *testing.T) {
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	if err := newClient(t, server.URL).RequestImport(context.Background(), "9780000000001"); err != nil {
		t.Fatalf("RequestImport returned error: %v", err)
	}
	if got := path.Load(); got != "/isbn/9780000000001" {
		t.Fatalf("unexpected import path %v", got)
	}
}

func TestWorkRejectsUnexpectedKey(t *testing.T) {
	_, err := newClient(t, "https://openlibrary.example").Work(context.Background(), "/authors/OL1A")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWorkListFieldsMustBeArrays(t *testing.T) {
	var work openlibrary.Work
	if err := json.Unmarshal([]byte(`{"key":"/works/OL1W","subjects":null,"links":{"url":"https://x"}}`), &work); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if err := work.AddSubjects("Fiction"); err != nil {
		t.Fatalf("null subjects should accept entries: %v", err)
	}
	if got, err := work.Subjects(); err != nil || len(got) != 1 || got[0] != "Fiction" {
		t.Fatalf("Subjects() = %v, %v", got, err)
	}
	if _, err := work.LinkURLs(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := work.AddLink(openlibrary.NewLink("Review", "https://y")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	local, err := json.Marshal(&work)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(local), `"links":{"url":"https://x"}`) {
		t.Fatalf("links rewritten: %s", local)
	}
}
