package config

const (
	defaultConfigPath                = "~/.config/nytbot/config.toml"
	defaultStateDir                  = "~/.local/share/nytbot"
	defaultLogDir                    = "~/.local/share/nytbot/logs"
	defaultResultsDir                = "~/.local/share/nytbot/results"
	defaultBestSellersFile           = "result.json"
	defaultReviewsFile               = "reviews.json"
	defaultNYTBaseURL                = "https://api.nytimes.com/svc/books/v3"
	defaultNYTRequestIntervalSeconds = 6
	defaultNYTMaxRetries             = 10
	defaultNYTRetryWaitSeconds       = 6
	defaultNYTTimeoutSeconds         = 30
	defaultOpenLibraryBaseURL        = "https://openlibrary.org"
	defaultOpenLibraryUserAgent      = "nytbot/dev (+https://openlibrary.org/people/nytbot)"
	defaultOpenLibraryRPS            = 1
	defaultOpenLibraryTimeoutSeconds = 15
	defaultBestSellerSubject         = "New York Times bestseller"
	defaultTaggerComment             = "Add NYT bestseller tag"
	defaultLinkTitle                 = "New York Times review"
	defaultLinkerComment             = "Add NYT review links"
	defaultNotifyTimeout             = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultLogRetentionDays          = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:        defaultStateDir,
			LogDir:          defaultLogDir,
			ResultsDir:      defaultResultsDir,
			BestSellersFile: defaultBestSellersFile,
			ReviewsFile:     defaultReviewsFile,
		},
		NYT: NYT{
			BaseURL:                defaultNYTBaseURL,
			RequestIntervalSeconds: defaultNYTRequestIntervalSeconds,
			MaxRetries:             defaultNYTMaxRetries,
			RetryWaitSeconds:       defaultNYTRetryWaitSeconds,
			TimeoutSeconds:         defaultNYTTimeoutSeconds,
		},
		OpenLibrary: OpenLibrary{
			BaseURL:           defaultOpenLibraryBaseURL,
			UserAgent:         defaultOpenLibraryUserAgent,
			RequestsPerSecond: defaultOpenLibraryRPS,
			TimeoutSeconds:    defaultOpenLibraryTimeoutSeconds,
		},
		Tagger: Tagger{
			Subject: defaultBestSellerSubject,
			Comment: defaultTaggerComment,
		},
		Linker: Linker{
			Subject:   defaultBestSellerSubject,
			LinkTitle: defaultLinkTitle,
			Comment:   defaultLinkerComment,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnSuccess:      true,
			OnFailure:      true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
