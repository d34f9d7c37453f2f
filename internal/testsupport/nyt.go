package testsupport

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// FakeNYT serves canned NYT Books API payloads keyed by published date.
type FakeNYT struct {
	URL string

	mu        sync.Mutex
	overviews map[string]string
	lists     map[string][]string
	names     string
	apiKey    string
	requests  []string
}

// NewFakeNYT starts a fake that only accepts apiKey.
func NewFakeNYT(t testing.TB, apiKey string) *FakeNYT {
	t.Helper()

	fake := &FakeNYT{
		overviews: map[string]string{},
		lists:     map[string][]string{},
		names:     `{"results":[]}`,
		apiKey:    apiKey,
	}
	server := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(server.Close)
	fake.URL = server.URL
	return fake
}

// SetOverview registers the full-overview body returned for date. Use
// "current" for requests without a date.
func (f *FakeNYT) SetOverview(date, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overviews[date] = body
}

// SetListPages registers lists.json bodies for list and date, one per offset
// window of 20.
func (f *FakeNYT) SetListPages(list, date string, pages ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[list+"|"+date] = pages
}

// SetNames registers the lists/names.json body.
func (f *FakeNYT) SetNames(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = body
}

// Requests returns the raw query of every request received.
func (f *FakeNYT) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *FakeNYT) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.URL.Path+"?"+r.URL.RawQuery)
	q := r.URL.Query()
	if q.Get("api-key") != f.apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body string
	switch r.URL.Path {
	case "/lists/full-overview.json":
		date := q.Get("published_date")
		if date == "" {
			date = "current"
		}
		var ok bool
		if body, ok = f.overviews[date]; !ok {
			http.NotFound(w, r)
			return
		}
	case "/lists.json":
		pages, ok := f.lists[q.Get("list")+"|"+q.Get("published-date")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		offset, _ := strconv.Atoi(q.Get("offset"))
		index := offset / 20
		if index >= len(pages) {
			body = `{"num_results":0,"results":[]}`
		} else {
			body = pages[index]
		}
	case "/lists/names.json":
		body = f.names
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
