package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SubjectKey returns the comparison key for a subject: surrounding and
// repeated whitespace collapsed, then case-folded.
func SubjectKey(subject string) string {
	return cases.Fold().String(strings.Join(strings.Fields(subject), " "))
}

// SubjectSet indexes subjects by SubjectKey.
type SubjectSet map[string]struct{}

// NewSubjectSet builds a set from the given subjects.
func NewSubjectSet(subjects []string) SubjectSet {
	set := make(SubjectSet, len(subjects))
	for _, subject := range subjects {
		set.Add(subject)
	}
	return set
}

// Add inserts subject into the set.
func (s SubjectSet) Add(subject string) {
	if key := SubjectKey(subject); key != "" {
		s[key] = struct{}{}
	}
}

// Has reports whether an equivalent subject is present.
func (s SubjectSet) Has(subject string) bool {
	_, ok := s[SubjectKey(subject)]
	return ok
}

// ListDisplayName turns an encoded list name such as "hardcover-fiction" into
// "Hardcover Fiction".
func ListDisplayName(encoded string) string {
	words := strings.FieldsFunc(encoded, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
