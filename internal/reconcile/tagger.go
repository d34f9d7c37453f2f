package reconcile

import (
	"fmt"
	"strings"

	"nytbot/internal/services"
	"nytbot/internal/services/openlibrary"
	"nytbot/internal/textutil"
)

// ListSubjectPrefix starts every list-specific subject.
const ListSubjectPrefix = "nyt:"

// ListSubject returns the list-specific subject for a best-seller entry, for
// example "nyt:hardcover-fiction=2024-01-07".
func ListSubject(listName, publishedDate string) string {
	listName = strings.TrimSpace(listName)
	publishedDate = strings.TrimSpace(publishedDate)
	if listName == "" || publishedDate == "" {
		return ""
	}
	return fmt.Sprintf("%s%s=%s", ListSubjectPrefix, listName, publishedDate)
}

// Tagger ensures a work carries the best-seller subject and, optionally, the
// list-specific subject.
type Tagger struct {
	Subject      string
	ListSubjects bool
	EditComment  string
}

// Name implements Mutator.
func (t Tagger) Name() string { return "tagger" }

// Comment implements Mutator.
func (t Tagger) Comment() string { return t.EditComment }

// DesiredSubjects lists the subjects item requires, in the order they are
// appended.
func (t Tagger) DesiredSubjects(item Item) []string {
	var out []string
	if subject := strings.TrimSpace(t.Subject); subject != "" {
		out = append(out, subject)
	}
	if t.ListSubjects {
		if subject := ListSubject(item.ListName, item.PublishedDate.String()); subject != "" {
			out = append(out, subject)
		}
	}
	return out
}

// Apply implements Mutator. Each desired subject is checked on its own, so a
// work holding only some of them gets the rest.
func (t Tagger) Apply(work *openlibrary.Work, item Item) ([]string, error) {
	desired := t.DesiredSubjects(item)
	if len(desired) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "tagger", "apply", "no subject configured", nil)
	}
	return ensureSubjects(work, desired)
}

func ensureSubjects(work *openlibrary.Work, desired []string) ([]string, error) {
	subjects, err := work.Subjects()
	if err != nil {
		return nil, err
	}
	present := textutil.NewSubjectSet(subjects)
	var missing, added []string
	for _, subject := range desired {
		if present.Has(subject) {
			continue
		}
		missing = append(missing, subject)
		present.Add(subject)
		added = append(added, "subject:"+subject)
	}
	if len(missing) == 0 {
		return nil, nil
	}
	if err := work.AddSubjects(missing...); err != nil {
		return nil, err
	}
	return added, nil
}
