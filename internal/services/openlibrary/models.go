package openlibrary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"nytbot/internal/services"
)

// LinkType is the type key Open Library assigns to external links.
const LinkType = "/type/link"

// Ref is an Open Library {"key": ...} reference.
type Ref struct {
	Key string `json:"key"`
}

// Link is an entry of a work's links list.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  *Ref   `json:"type,omitempty"`
}

// NewLink builds a link with the standard link type.
func NewLink(title, url string) Link {
	return Link{Title: title, URL: url, Type: &Ref{Key: LinkType}}
}

// Edition is the subset of an edition record needed to find its work.
type Edition struct {
	Key    string   `json:"key"`
	Title  string   `json:"title"`
	ISBN10 []string `json:"isbn_10"`
	ISBN13 []string `json:"isbn_13"`
	Works  []Ref    `json:"works"`
}

// WorkKey returns the first work key of the edition, if any.
func (e *Edition) WorkKey() string {
	if e == nil {
		return ""
	}
	for _, w := range e.Works {
		if key := strings.TrimSpace(w.Key); key != "" {
			return key
		}
	}
	return ""
}

// Work is a work document. Only subjects and links are interpreted; every
// other field is kept verbatim so a save writes it back unchanged.
type Work struct {
	fields map[string]json.RawMessage
}

// Key returns the work key, for example "/works/OL1W".
func (w *Work) Key() string {
	var key string
	w.field("key", &key)
	return key
}

// Title returns the work title.
func (w *Work) Title() string {
	var title string
	w.field("title", &title)
	return title
}

// Subjects returns the string entries of the work's subjects in stored
// order. Entries of any other shape are skipped here but kept on save.
func (w *Work) Subjects() ([]string, error) {
	elements, err := w.elements("subjects")
	if err != nil {
		return nil, err
	}
	subjects := make([]string, 0, len(elements))
	for _, raw := range elements {
		var subject string
		if json.Unmarshal(raw, &subject) == nil {
			subjects = append(subjects, subject)
		}
	}
	return subjects, nil
}

// AddSubjects appends subjects after the existing entries.
func (w *Work) AddSubjects(subjects ...string) error {
	values := make([]any, 0, len(subjects))
	for _, subject := range subjects {
		values = append(values, subject)
	}
	return w.appendElements("subjects", values...)
}

// LinkURLs returns the url of every link entry that has one, in stored order.
func (w *Work) LinkURLs() ([]string, error) {
	elements, err := w.elements("links")
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(elements))
	for _, raw := range elements {
		var link struct {
			URL string `json:"url"`
		}
		if json.Unmarshal(raw, &link) == nil && link.URL != "" {
			urls = append(urls, link.URL)
		}
	}
	return urls, nil
}

// AddLink appends link after the existing links.
func (w *Work) AddLink(link Link) error {
	return w.appendElements("links", link)
}

// Clone returns an independent copy of the work.
func (w *Work) Clone() *Work {
	clone := &Work{fields: make(map[string]json.RawMessage, len(w.fields))}
	for k, v := range w.fields {
		clone.fields[k] = append(json.RawMessage(nil), v...)
	}
	return clone
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Work) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	w.fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (w *Work) MarshalJSON() ([]byte, error) {
	if w.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(w.fields)
}

func (w *Work) field(name string, target any) {
	raw, ok := w.fields[name]
	if !ok {
		return
	}
	// Malformed optional fields read as empty.
	_ = json.Unmarshal(raw, target)
}

// elements splits a list field into its raw entries. A missing or null field
// is empty; any other non-array value is an error so callers never replace it.
func (w *Work) elements(name string) ([]json.RawMessage, error) {
	raw, ok := w.fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "read "+name,
			fmt.Sprintf("%s field is not a list", name), err)
	}
	return elements, nil
}

// appendElements adds values to a list field, leaving existing entries as
// they were read.
func (w *Work) appendElements(name string, values ...any) error {
	if len(values) == 0 {
		return nil
	}
	elements, err := w.elements(name)
	if err != nil {
		return err
	}
	for _, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s entry: %w", name, err)
		}
		elements = append(elements, raw)
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, raw := range elements {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(raw)
	}
	buf.WriteByte(']')
	if w.fields == nil {
		w.fields = map[string]json.RawMessage{}
	}
	w.fields[name] = buf.Bytes()
	return nil
}

func (w *Work) setField(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if w.fields == nil {
		w.fields = map[string]json.RawMessage{}
	}
	w.fields[name] = raw
	return nil
}
