package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"nytbot/internal/fileutil"
)

// ErrUnknownFormat is returned when an artifact matches none of the accepted
// layouts.
var ErrUnknownFormat = errors.New("unrecognized artifact format")

// WriteBestSellers writes records as a JSON array, atomically. A nil slice
// is written as an empty array.
func WriteBestSellers(path string, items []BestSeller) error {
	if items == nil {
		items = []BestSeller{}
	}
	return fileutil.WriteJSONAtomic(path, items)
}

// WriteReviews writes records as a JSON array, atomically.
func WriteReviews(path string, items []Review) error {
	if items == nil {
		items = []Review{}
	}
	return fileutil.WriteJSONAtomic(path, items)
}

// ReadBestSellers loads a best-seller artifact. Besides the record array it
// accepts the grouped layout [{list_name_encoded, published_date, isbns}].
func ReadBestSellers(path string) ([]BestSeller, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read best sellers: %w", err)
	}
	items, err := ParseBestSellers(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// ParseBestSellers decodes a best-seller artifact body.
func ParseBestSellers(data []byte) ([]BestSeller, error) {
	elems, err := arrayElements(data)
	if err != nil {
		return nil, err
	}
	out := make([]BestSeller, 0, len(elems))
	for i, raw := range elems {
		var shape map[string]json.RawMessage
		if err := json.Unmarshal(raw, &shape); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, ErrUnknownFormat)
		}
		if _, grouped := shape["isbns"]; grouped {
			var group struct {
				ListName      string   `json:"list_name_encoded"`
				PublishedDate Date     `json:"published_date"`
				ISBNs         []string `json:"isbns"`
			}
			if err := json.Unmarshal(raw, &group); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			for _, isbn := range group.ISBNs {
				out = append(out, BestSeller{
					ISBN:          NormalizeISBN(isbn),
					ListName:      group.ListName,
					PublishedDate: group.PublishedDate,
				})
			}
			continue
		}
		var record BestSeller
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		record.ISBN = NormalizeISBN(record.ISBN)
		out = append(out, record)
	}
	return out, nil
}

// ReadReviews loads a review artifact. Besides the record array it accepts
// [[url, isbn], ...] pairs in either order and the {isbn: {reviews: [...]}}
// map layout.
func ReadReviews(path string) ([]Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reviews: %w", err)
	}
	items, err := ParseReviews(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// ParseReviews decodes a review artifact body.
func ParseReviews(data []byte) ([]Review, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return parseReviewMap(trimmed)
	}
	elems, err := arrayElements(trimmed)
	if err != nil {
		return nil, err
	}
	out := make([]Review, 0, len(elems))
	for i, raw := range elems {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			review, err := parseReviewPair(raw)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out = append(out, review)
			continue
		}
		var record Review
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		record.ISBN = NormalizeISBN(record.ISBN)
		record.ReviewURL = strings.TrimSpace(record.ReviewURL)
		out = append(out, record)
	}
	return out, nil
}

func parseReviewPair(raw []byte) (Review, error) {
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return Review{}, ErrUnknownFormat
	}
	first, second := strings.TrimSpace(pair[0]), strings.TrimSpace(pair[1])
	if isURL(second) && !isURL(first) {
		first, second = second, first
	}
	if !isURL(first) {
		return Review{}, fmt.Errorf("pair %q has no url: %w", pair, ErrUnknownFormat)
	}
	return Review{ISBN: NormalizeISBN(second), ReviewURL: first}, nil
}

func parseReviewMap(data []byte) ([]Review, error) {
	var byISBN map[string]struct {
		ISBN    string   `json:"isbn"`
		Reviews []string `json:"reviews"`
	}
	if err := json.Unmarshal(data, &byISBN); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	keys := make([]string, 0, len(byISBN))
	for key := range byISBN {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var out []Review
	for _, key := range keys {
		entry := byISBN[key]
		isbn := entry.ISBN
		if strings.TrimSpace(isbn) == "" {
			isbn = key
		}
		for _, url := range entry.Reviews {
			if url = strings.TrimSpace(url); url != "" {
				out = append(out, Review{ISBN: NormalizeISBN(isbn), ReviewURL: url})
			}
		}
	}
	return out, nil
}

func arrayElements(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrUnknownFormat
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	return elems, nil
}

func isURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
