package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeOpenLibrary is an in-memory Open Library served over httptest.
type FakeOpenLibrary struct {
	URL string

	mu       sync.Mutex
	editions map[string]string
	works    map[string]map[string]any
	saves    []SavedWork
	imports  []string
	access   string
	secret   string
	failWork map[string]int
}

// SavedWork records one PUT of a work document.
type SavedWork struct {
	Key      string
	Document map[string]any
	Comment  string
}

// NewFakeOpenLibrary starts a fake that accepts the given credentials.
func NewFakeOpenLibrary(t testing.TB, access, secret string) *FakeOpenLibrary {
	t.Helper()

	fake := &FakeOpenLibrary{
		editions: map[string]string{},
		works:    map[string]map[string]any{},
		failWork: map[string]int{},
		access:   access,
		secret:   secret,
	}
	server := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(server.Close)
	fake.URL = server.URL
	return fake
}

// AddWork registers an edition for isbn linked to a work with the given
// subjects. An empty workKey registers an edition without a work.
func (f *FakeOpenLibrary) AddWork(isbn, workKey string, subjects ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editions[isbn] = workKey
	if workKey == "" {
		return
	}
	if _, ok := f.works[workKey]; ok {
		return
	}
	doc := map[string]any{"key": workKey, "title": "Work " + workKey, "type": map[string]any{"key": "/type/work"}}
	if len(subjects) > 0 {
		list := make([]any, 0, len(subjects))
		for _, s := range subjects {
			list = append(list, s)
		}
		doc["subjects"] = list
	}
	f.works[workKey] = doc
}

// SetLinks replaces the links of a registered work.
func (f *FakeOpenLibrary) SetLinks(workKey string, links ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]any, 0, len(links))
	for _, l := range links {
		list = append(list, l)
	}
	f.works[workKey]["links"] = list
}

// SetField replaces one field of a registered work document.
func (f *FakeOpenLibrary) SetField(workKey, name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.works[workKey][name] = value
}

// Field returns one field of a work as currently stored.
func (f *FakeOpenLibrary) Field(workKey, name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.works[workKey][name]
}

// FailWork makes the next n reads of workKey answer 500.
func (f *FakeOpenLibrary) FailWork(workKey string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWork[workKey] = n
}

// Subjects returns the current subjects of a work.
func (f *FakeOpenLibrary) Subjects(workKey string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := f.works[workKey]["subjects"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// LinkURLs returns the link URLs of a work.
func (f *FakeOpenLibrary) LinkURLs(workKey string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := f.works[workKey]["links"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			if u, ok := m["url"].(string); ok {
				out = append(out, u)
			}
		}
	}
	return out
}

// Saves returns every work write received so far.
func (f *FakeOpenLibrary) Saves() []SavedWork {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SavedWork(nil), f.saves...)
}

// Imports returns the ISBNs whose import page was requested.
func (f *FakeOpenLibrary) Imports() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.imports...)
}

func (f *FakeOpenLibrary) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/account/login" && r.Method == http.MethodPost:
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["access"] != f.access || creds["secret"] != f.secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "fake-session", Path: "/"})
		w.WriteHeader(http.StatusOK)

	case strings.HasPrefix(path, "/isbn/") && strings.HasSuffix(path, ".json"):
		isbn := strings.TrimSuffix(strings.TrimPrefix(path, "/isbn/"), ".json")
		workKey, ok := f.editions[isbn]
		if !ok {
			http.NotFound(w, r)
			return
		}
		edition := map[string]any{"key": "/books/" + isbn + "M"}
		if workKey != "" {
			edition["works"] = []any{map[string]any{"key": workKey}}
		}
		writeJSON(w, edition)

	case strings.HasPrefix(path, "/isbn/"):
		f.imports = append(f.imports, strings.TrimPrefix(path, "/isbn/"))
		w.WriteHeader(http.StatusOK)

	case strings.HasPrefix(path, "/works/") && r.Method == http.MethodGet:
		key := strings.TrimSuffix(path, ".json")
		if n := f.failWork[key]; n > 0 {
			f.failWork[key] = n - 1
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		doc, ok := f.works[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, doc)

	case strings.HasPrefix(path, "/works/") && r.Method == http.MethodPut:
		if cookie, err := r.Cookie("session"); err != nil || cookie.Value != "fake-session" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		key := strings.TrimSuffix(path, ".json")
		body, _ := io.ReadAll(r.Body)
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		comment, _ := doc["_comment"].(string)
		delete(doc, "_comment")
		f.works[key] = doc
		f.saves = append(f.saves, SavedWork{Key: key, Document: doc, Comment: comment})
		w.WriteHeader(http.StatusOK)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
