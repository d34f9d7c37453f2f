package reconcile

import (
	"strings"

	"nytbot/internal/services"
	"nytbot/internal/services/openlibrary"
)

// Linker ensures a work carries the best-seller subject and a link to its
// NYT review.
type Linker struct {
	Subject     string
	LinkTitle   string
	EditComment string
}

// Name implements Mutator.
func (l Linker) Name() string { return "linker" }

// Comment implements Mutator.
func (l Linker) Comment() string { return l.EditComment }

// Apply implements Mutator. Links are matched by trimmed URL.
func (l Linker) Apply(work *openlibrary.Work, item Item) ([]string, error) {
	url := strings.TrimSpace(item.ReviewURL)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "linker", "apply", "review url missing", nil)
	}

	var added []string
	if subject := strings.TrimSpace(l.Subject); subject != "" {
		subjectAdded, err := ensureSubjects(work, []string{subject})
		if err != nil {
			return nil, err
		}
		added = append(added, subjectAdded...)
	}

	existing, err := work.LinkURLs()
	if err != nil {
		return nil, err
	}
	for _, linkURL := range existing {
		if strings.TrimSpace(linkURL) == url {
			return added, nil
		}
	}
	if err := work.AddLink(openlibrary.NewLink(l.LinkTitle, url)); err != nil {
		return nil, err
	}
	return append(added, "link:"+url), nil
}
