package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"nytbot/internal/logging"
	"nytbot/internal/records"
	"nytbot/internal/services"
	"nytbot/internal/services/nyt"
)

// Source is the subset of the NYT client used by the collector.
type Source interface {
	Overview(ctx context.Context, date time.Time) (*nyt.Overview, error)
	List(ctx context.Context, list string, date time.Time) ([]nyt.ListEntry, error)
	Names(ctx context.Context) ([]nyt.ListName, error)
}

// Options selects what to collect.
type Options struct {
	// From and To bound a historical walk, one date every 7 days. Both zero
	// collects the current lists only.
	From records.Date
	To   records.Date
	// Lists restricts collection to the named lists. Empty means every list
	// from the full overview.
	Lists []string
	// NewEntriesOnly keeps only books in their first week on a list.
	NewEntriesOnly bool
}

// Failure records a date (and list) the collector had to skip.
type Failure struct {
	Date  string `json:"date"`
	List  string `json:"list,omitempty"`
	Error string `json:"error"`
}

// Result is everything gathered in one collection run.
type Result struct {
	BestSellers []records.BestSeller `json:"best_sellers"`
	Reviews     []records.Review     `json:"reviews"`
	Dates       []string             `json:"dates"`
	Failures    []Failure            `json:"failures,omitempty"`
	Skipped     int                  `json:"skipped"`
	Duplicates  int                  `json:"duplicates"`
}

// Counts summarizes the result for run reports.
func (r *Result) Counts() map[string]int {
	return map[string]int{
		"dates":        len(r.Dates),
		"best_sellers": len(r.BestSellers),
		"reviews":      len(r.Reviews),
		"failures":     len(r.Failures),
		"skipped":      r.Skipped,
		"duplicates":   r.Duplicates,
	}
}

// ListCounts returns the number of collected best sellers per list, in first
// seen order.
func (r *Result) ListCounts() ([]string, map[string]int) {
	var order []string
	counts := map[string]int{}
	for _, b := range r.BestSellers {
		if _, ok := counts[b.ListName]; !ok {
			order = append(order, b.ListName)
		}
		counts[b.ListName]++
	}
	return order, counts
}

// Collector turns NYT best-seller lists into records.
type Collector struct {
	source Source
	logger *slog.Logger
}

// New constructs a Collector.
func New(source Source, logger *slog.Logger) *Collector {
	return &Collector{
		source: source,
		logger: logging.NewComponentLogger(logger, "collector"),
	}
}

// Collect walks the requested dates and lists. Errors for a single date or
// list are recorded in Result.Failures and skipped. Authentication failures
// and cancellation stop the walk; the partial result is returned alongside
// the error.
func (c *Collector) Collect(ctx context.Context, opts Options) (*Result, error) {
	dates, err := Dates(opts.From, opts.To)
	if err != nil {
		return nil, err
	}
	run := &collection{
		collector: c,
		opts:      opts,
		result:    &Result{BestSellers: []records.BestSeller{}, Reviews: []records.Review{}},
		seen:      map[string]struct{}{},
		reviews:   map[string]struct{}{},
	}
	logger := logging.WithContext(ctx, c.logger)

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return run.result, err
		}
		label := date.String()
		if date.IsZero() {
			label = "current"
		}
		run.result.Dates = append(run.result.Dates, label)

		var stepErr error
		if len(opts.Lists) == 0 {
			stepErr = run.overview(ctx, date)
		} else {
			stepErr = run.lists(ctx, date)
		}
		if stepErr != nil {
			return run.result, stepErr
		}
	}

	logger.Info("collection finished",
		logging.Int("dates", len(run.result.Dates)),
		logging.Int("best_sellers", len(run.result.BestSellers)),
		logging.Int("reviews", len(run.result.Reviews)),
		logging.Int("failures", len(run.result.Failures)),
		logging.Event("collect_finished"),
	)
	return run.result, nil
}

type collection struct {
	collector *Collector
	opts      Options
	result    *Result
	seen      map[string]struct{}
	reviews   map[string]struct{}
	cadences  map[string]string
}

func (r *collection) overview(ctx context.Context, date records.Date) error {
	overview, err := r.collector.source.Overview(ctx, date.Time)
	if err != nil {
		return r.fail(ctx, date, "", err)
	}
	published := date
	if parsed, err := records.ParseDate(overview.PublishedDate); err == nil {
		published = parsed
	}
	for _, list := range overview.Lists {
		books := append([]nyt.OverviewBook(nil), list.Books...)
		sort.SliceStable(books, func(i, j int) bool { return books[i].Rank < books[j].Rank })
		listName := strings.TrimSpace(list.ListNameEncoded)
		for _, book := range books {
			isbn := records.PreferredISBN(book.PrimaryISBN13, book.PrimaryISBN10)
			if isbn == "" && len(book.ISBNs) > 0 {
				isbn = records.PreferredISBN(book.ISBNs[0].ISBN13, book.ISBNs[0].ISBN10)
			}
			if isbn == "" {
				r.skip(ctx, listName, book.Title)
				continue
			}
			r.addReviews(isbn, listName, book.BookReviewLink, book.SundayReviewLink)
			if r.opts.NewEntriesOnly && !firstWeek(list.Updated, book.WeeksOnList) {
				continue
			}
			r.add(records.BestSeller{
				ISBN:          isbn,
				Title:         book.Title,
				Author:        book.Author,
				ListName:      listName,
				Rank:          book.Rank,
				PublishedDate: published,
			})
		}
	}
	return nil
}

func (r *collection) lists(ctx context.Context, date records.Date) error {
	if r.opts.NewEntriesOnly && r.cadences == nil {
		r.loadCadences(ctx)
	}
	for _, list := range r.opts.Lists {
		entries, err := r.collector.source.List(ctx, list, date.Time)
		if err != nil {
			if failErr := r.fail(ctx, date, list, err); failErr != nil {
				return failErr
			}
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
		for _, entry := range entries {
			isbn, title, author := entryBook(entry)
			if isbn == "" {
				r.skip(ctx, list, title)
				continue
			}
			for _, review := range entry.Reviews {
				r.addReviews(isbn, list, review.BookReviewLink, review.SundayReviewLink)
			}
			if r.opts.NewEntriesOnly && !firstWeek(r.cadences[strings.ToLower(list)], entry.WeeksOnList) {
				continue
			}
			published := date
			if parsed, err := records.ParseDate(entry.PublishedDate); err == nil {
				published = parsed
			}
			r.add(records.BestSeller{
				ISBN:          isbn,
				Title:         title,
				Author:        author,
				ListName:      list,
				Rank:          entry.Rank,
				PublishedDate: published,
			})
		}
	}
	return nil
}

func (r *collection) loadCadences(ctx context.Context) {
	r.cadences = map[string]string{}
	names, err := r.collector.source.Names(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.collector.logger), "list cadences unavailable", "collect_names_failed",
			logging.Error(err),
			logging.Hint("check NYT API availability"),
			logging.Impact("first-week filter treats weeks_on_list 0 or 1 as new"),
		)
		return
	}
	for _, name := range names {
		r.cadences[strings.ToLower(strings.TrimSpace(name.ListNameEncoded))] = name.Updated
	}
}

func (r *collection) add(record records.BestSeller) {
	key := record.Key()
	if r.opts.NewEntriesOnly {
		// Monthly lists keep reporting a book as new for several weeks.
		key = record.ISBN
	}
	if _, dup := r.seen[key]; dup {
		r.result.Duplicates++
		return
	}
	r.seen[key] = struct{}{}
	r.result.BestSellers = append(r.result.BestSellers, record)
}

func (r *collection) addReviews(isbn, list string, urls ...string) {
	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		review := records.Review{ISBN: isbn, ReviewURL: url, ListName: list}
		if _, dup := r.reviews[review.Key()]; dup {
			continue
		}
		r.reviews[review.Key()] = struct{}{}
		r.result.Reviews = append(r.result.Reviews, review)
	}
}

func (r *collection) skip(ctx context.Context, list, title string) {
	r.result.Skipped++
	logging.WarnWithContext(logging.WithContext(ctx, r.collector.logger), "best seller without isbn skipped", "collect_entry_skipped",
		logging.ListName(list),
		logging.String("title", title),
		logging.Hint("NYT listed the book without a primary ISBN"),
		logging.Impact("book is not tagged this run"),
	)
}

// fail records a per-date failure. Fatal errors and cancellation are returned
// so the walk stops.
func (r *collection) fail(ctx context.Context, date records.Date, list string, err error) error {
	if services.IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	label := date.String()
	if label == "" {
		label = "current"
	}
	r.result.Failures = append(r.result.Failures, Failure{Date: label, List: list, Error: err.Error()})
	logging.WarnWithContext(logging.WithContext(ctx, r.collector.logger), "best-seller fetch failed; date skipped", "collect_date_failed",
		logging.String("date", label),
		logging.ListName(list),
		logging.Error(err),
		logging.String("error_kind", services.Kind(err)),
		logging.Hint("rerun collect for this date"),
		logging.Impact("books from this date are missing from the artifact"),
	)
	return nil
}

// firstWeek reports whether a book is in its first week on a list. Monthly
// lists start counting at 0, weekly lists at 1.
func firstWeek(cadence string, weeksOnList int) bool {
	switch strings.ToUpper(strings.TrimSpace(cadence)) {
	case nyt.CadenceWeekly:
		return weeksOnList == 1
	case nyt.CadenceMonthly:
		return weeksOnList == 0
	default:
		return weeksOnList <= 1
	}
}

func entryBook(entry nyt.ListEntry) (isbn, title, author string) {
	if len(entry.BookDetails) > 0 {
		detail := entry.BookDetails[0]
		isbn = records.PreferredISBN(detail.PrimaryISBN13, detail.PrimaryISBN10)
		title, author = detail.Title, detail.Author
	}
	for _, pair := range entry.ISBNs {
		if isbn != "" {
			break
		}
		isbn = records.PreferredISBN(pair.ISBN13, pair.ISBN10)
	}
	return isbn, title, author
}

// Dates expands a range into weekly publication dates, inclusive of from. A
// zero range yields a single zero date meaning "current". A zero to collects
// only from.
func Dates(from, to records.Date) ([]records.Date, error) {
	if from.IsZero() && to.IsZero() {
		return []records.Date{{}}, nil
	}
	if from.IsZero() {
		from = to
	}
	if to.IsZero() {
		to = from
	}
	if to.Before(from.Time) {
		return nil, services.Wrap(services.ErrValidation, "collector", "dates", fmt.Sprintf("end %s is before start %s", to, from), nil)
	}
	var dates []records.Date
	for d := from; !d.After(to.Time); d = d.AddDays(7) {
		dates = append(dates, d)
	}
	return dates, nil
}

// WriteArtifacts writes the best-seller and review artifacts.
func WriteArtifacts(result *Result, bestSellersPath, reviewsPath string) error {
	if result == nil {
		result = &Result{}
	}
	if err := records.WriteBestSellers(bestSellersPath, result.BestSellers); err != nil {
		return fmt.Errorf("write best sellers: %w", err)
	}
	if strings.TrimSpace(reviewsPath) != "" {
		if err := records.WriteReviews(reviewsPath, result.Reviews); err != nil {
			return fmt.Errorf("write reviews: %w", err)
		}
	}
	return nil
}
