package records

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{t}, nil
}

// String returns the YYYY-MM-DD form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// BestSeller is one book on one NYT list for one publication date.
type BestSeller struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title,omitempty"`
	Author        string `json:"author,omitempty"`
	ListName      string `json:"list_name"`
	Rank          int    `json:"rank,omitempty"`
	PublishedDate Date   `json:"published_date"`
}

// Key identifies the record within an artifact.
func (b BestSeller) Key() string {
	return b.ISBN + "|" + b.ListName
}

// Review links a book to an NYT review URL.
type Review struct {
	ISBN      string `json:"isbn"`
	ReviewURL string `json:"review_url"`
	ListName  string `json:"list_name,omitempty"`
}

// Key identifies the record within an artifact.
func (r Review) Key() string {
	return r.ISBN + "|" + strings.TrimSpace(r.ReviewURL)
}

// NormalizeISBN strips hyphens and whitespace and upper-cases a trailing x.
func NormalizeISBN(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
		case r == 'x':
			b.WriteRune('X')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidISBN reports whether value, once normalized, is a plausible ISBN-10
// or ISBN-13. Check digits are not verified.
func ValidISBN(value string) bool {
	isbn := NormalizeISBN(value)
	switch len(isbn) {
	case 10:
		for i, r := range isbn {
			if r >= '0' && r <= '9' {
				continue
			}
			if r == 'X' && i == 9 {
				continue
			}
			return false
		}
		return true
	case 13:
		for _, r := range isbn {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// PreferredISBN returns the normalized ISBN-13 when valid, else the ISBN-10,
// else "".
func PreferredISBN(isbn13, isbn10 string) string {
	if v := NormalizeISBN(isbn13); ValidISBN(v) {
		return v
	}
	if v := NormalizeISBN(isbn10); ValidISBN(v) {
		return v
	}
	return ""
}
