package nyt

// ISBNPair is one entry of a list book's isbns block.
type ISBNPair struct {
	ISBN10 string `json:"isbn10"`
	ISBN13 string `json:"isbn13"`
}

// OverviewBook is a ranked book inside a full-overview list.
type OverviewBook struct {
	Rank             int        `json:"rank"`
	RankLastWeek     int        `json:"rank_last_week"`
	WeeksOnList      int        `json:"weeks_on_list"`
	PrimaryISBN13    string     `json:"primary_isbn13"`
	PrimaryISBN10    string     `json:"primary_isbn10"`
	Title            string     `json:"title"`
	Author           string     `json:"author"`
	Publisher        string     `json:"publisher"`
	BookReviewLink   string     `json:"book_review_link"`
	SundayReviewLink string     `json:"sunday_review_link"`
	ISBNs            []ISBNPair `json:"isbns"`
}

// OverviewList is one list inside the full-overview payload.
type OverviewList struct {
	ListID          int            `json:"list_id"`
	ListName        string         `json:"list_name"`
	ListNameEncoded string         `json:"list_name_encoded"`
	DisplayName     string         `json:"display_name"`
	Updated         string         `json:"updated"`
	Books           []OverviewBook `json:"books"`
}

// Overview is the results block of lists/full-overview.json.
type Overview struct {
	BestsellersDate  string         `json:"bestsellers_date"`
	PublishedDate    string         `json:"published_date"`
	PreviousDate     string         `json:"previous_published_date"`
	NextPublishedDay string         `json:"next_published_date"`
	Lists            []OverviewList `json:"lists"`
}

type overviewResponse struct {
	Status     string   `json:"status"`
	NumResults int      `json:"num_results"`
	Results    Overview `json:"results"`
}

// BookDetail is the descriptive block attached to a list entry.
type BookDetail struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PrimaryISBN13 string `json:"primary_isbn13"`
	PrimaryISBN10 string `json:"primary_isbn10"`
}

// Review carries the review URLs attached to a list entry.
type Review struct {
	BookReviewLink     string `json:"book_review_link"`
	FirstChapterLink   string `json:"first_chapter_link"`
	SundayReviewLink   string `json:"sunday_review_link"`
	ArticleChapterLink string `json:"article_chapter_link"`
}

// ListEntry is one ranked book returned by lists.json.
type ListEntry struct {
	ListName        string       `json:"list_name"`
	DisplayName     string       `json:"display_name"`
	BestsellersDate string       `json:"bestsellers_date"`
	PublishedDate   string       `json:"published_date"`
	Rank            int          `json:"rank"`
	RankLastWeek    int          `json:"rank_last_week"`
	WeeksOnList     int          `json:"weeks_on_list"`
	ISBNs           []ISBNPair   `json:"isbns"`
	BookDetails     []BookDetail `json:"book_details"`
	Reviews         []Review     `json:"reviews"`
}

// ListPage is a single offset window of lists.json.
type ListPage struct {
	Status     string      `json:"status"`
	NumResults int         `json:"num_results"`
	Results    []ListEntry `json:"results"`
}

// ListName describes a list returned by lists/names.json.
type ListName struct {
	ListName            string `json:"list_name"`
	DisplayName         string `json:"display_name"`
	ListNameEncoded     string `json:"list_name_encoded"`
	OldestPublishedDate string `json:"oldest_published_date"`
	NewestPublishedDate string `json:"newest_published_date"`
	Updated             string `json:"updated"`
}

type namesResponse struct {
	Status     string     `json:"status"`
	NumResults int        `json:"num_results"`
	Results    []ListName `json:"results"`
}

// Cadence values reported in a list's updated field.
const (
	CadenceWeekly  = "WEEKLY"
	CadenceMonthly = "MONTHLY"
)
