package reconcile

import (
	"nytbot/internal/records"
)

// State is where a record stands in reconciliation. Every record starts
// Unresolved and ends in exactly one of the terminal states.
type State string

const (
	StateUnresolved    State = "unresolved"
	StateNotFound      State = "not_found"
	StateAlreadyTagged State = "already_tagged"
	StateTagged        State = "tagged"
	StateFailed        State = "failed"
)

// Terminal reports whether s ends a record's processing.
func (s State) Terminal() bool {
	switch s {
	case StateNotFound, StateAlreadyTagged, StateTagged, StateFailed:
		return true
	default:
		return false
	}
}

// Item is one record to reconcile against the catalog.
type Item struct {
	ISBN          string       `json:"isbn"`
	ListName      string       `json:"list_name,omitempty"`
	PublishedDate records.Date `json:"published_date,omitzero"`
	ReviewURL     string       `json:"review_url,omitempty"`
}

// ItemsFromBestSellers converts best-seller records to items.
func ItemsFromBestSellers(in []records.BestSeller) []Item {
	out := make([]Item, 0, len(in))
	for _, b := range in {
		out = append(out, Item{ISBN: b.ISBN, ListName: b.ListName, PublishedDate: b.PublishedDate})
	}
	return out
}

// ItemsFromReviews converts review records to items.
func ItemsFromReviews(in []records.Review) []Item {
	out := make([]Item, 0, len(in))
	for _, r := range in {
		out = append(out, Item{ISBN: r.ISBN, ListName: r.ListName, ReviewURL: r.ReviewURL})
	}
	return out
}

// Outcome is the terminal result for one item.
type Outcome struct {
	ISBN            string   `json:"isbn"`
	ListName        string   `json:"list_name,omitempty"`
	WorkKey         string   `json:"work_key,omitempty"`
	State           State    `json:"state"`
	Added           []string `json:"added,omitempty"`
	ImportRequested bool     `json:"import_requested,omitempty"`
	DryRun          bool     `json:"dry_run,omitempty"`
	Detail          string   `json:"detail,omitempty"`
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Total            int       `json:"total"`
	NotFound         int       `json:"not_found"`
	AlreadyTagged    int       `json:"already_tagged"`
	Tagged           int       `json:"tagged"`
	Failed           int       `json:"failed"`
	ImportsRequested int       `json:"imports_requested"`
	Outcomes         []Outcome `json:"outcomes"`
}

func (s *Summary) add(o Outcome) {
	s.Total++
	switch o.State {
	case StateNotFound:
		s.NotFound++
	case StateAlreadyTagged:
		s.AlreadyTagged++
	case StateTagged:
		s.Tagged++
	case StateFailed:
		s.Failed++
	}
	if o.ImportRequested {
		s.ImportsRequested++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Counts returns the per-state counters keyed by state name.
func (s *Summary) Counts() map[string]int {
	return map[string]int{
		"total":                    s.Total,
		string(StateNotFound):      s.NotFound,
		string(StateAlreadyTagged): s.AlreadyTagged,
		string(StateTagged):        s.Tagged,
		string(StateFailed):        s.Failed,
		"imports_requested":        s.ImportsRequested,
	}
}
