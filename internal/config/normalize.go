package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNYT()
	c.normalizeOpenLibrary()
	c.normalizeJobs()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BestSellersFile) == "" {
		c.Paths.BestSellersFile = defaultBestSellersFile
	}
	if c.Paths.BestSellersFile, err = expandPath(c.Paths.BestSellersFile); err != nil {
		return fmt.Errorf("paths.bestsellers_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReviewsFile) == "" {
		c.Paths.ReviewsFile = defaultReviewsFile
	}
	if c.Paths.ReviewsFile, err = expandPath(c.Paths.ReviewsFile); err != nil {
		return fmt.Errorf("paths.reviews_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeNYT() {
	c.NYT.APIKey = strings.TrimSpace(c.NYT.APIKey)
	if c.NYT.APIKey == "" {
		if value, ok := os.LookupEnv("NYT_API_KEY"); ok {
			c.NYT.APIKey = strings.TrimSpace(value)
		}
	}
	c.NYT.BaseURL = strings.TrimRight(strings.TrimSpace(c.NYT.BaseURL), "/")
	if c.NYT.BaseURL == "" {
		c.NYT.BaseURL = defaultNYTBaseURL
	}
	lists := make([]string, 0, len(c.NYT.Lists))
	seen := make(map[string]struct{}, len(c.NYT.Lists))
	for _, list := range c.NYT.Lists {
		normalized := strings.ToLower(strings.TrimSpace(list))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		lists = append(lists, normalized)
	}
	c.NYT.Lists = lists
	if c.NYT.RetryWaitSeconds <= 0 {
		c.NYT.RetryWaitSeconds = defaultNYTRetryWaitSeconds
	}
	if c.NYT.TimeoutSeconds <= 0 {
		c.NYT.TimeoutSeconds = defaultNYTTimeoutSeconds
	}
}

func (c *Config) normalizeOpenLibrary() {
	c.OpenLibrary.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenLibrary.BaseURL), "/")
	if c.OpenLibrary.BaseURL == "" {
		c.OpenLibrary.BaseURL = defaultOpenLibraryBaseURL
	}
	c.OpenLibrary.AccessKey = strings.TrimSpace(c.OpenLibrary.AccessKey)
	if c.OpenLibrary.AccessKey == "" {
		if value, ok := os.LookupEnv("OL_ACCESS_KEY"); ok {
			c.OpenLibrary.AccessKey = strings.TrimSpace(value)
		}
	}
	c.OpenLibrary.SecretKey = strings.TrimSpace(c.OpenLibrary.SecretKey)
	if c.OpenLibrary.SecretKey == "" {
		if value, ok := os.LookupEnv("OL_SECRET_KEY"); ok {
			c.OpenLibrary.SecretKey = strings.TrimSpace(value)
		}
	}
	c.OpenLibrary.UserAgent = strings.TrimSpace(c.OpenLibrary.UserAgent)
	if c.OpenLibrary.UserAgent == "" {
		c.OpenLibrary.UserAgent = defaultOpenLibraryUserAgent
	}
	if c.OpenLibrary.TimeoutSeconds <= 0 {
		c.OpenLibrary.TimeoutSeconds = defaultOpenLibraryTimeoutSeconds
	}
}

func (c *Config) normalizeJobs() {
	c.Tagger.Subject = strings.TrimSpace(c.Tagger.Subject)
	if c.Tagger.Subject == "" {
		c.Tagger.Subject = defaultBestSellerSubject
	}
	c.Tagger.Comment = strings.TrimSpace(c.Tagger.Comment)
	if c.Tagger.Comment == "" {
		c.Tagger.Comment = defaultTaggerComment
	}
	c.Linker.Subject = strings.TrimSpace(c.Linker.Subject)
	if c.Linker.Subject == "" {
		c.Linker.Subject = defaultBestSellerSubject
	}
	c.Linker.LinkTitle = strings.TrimSpace(c.Linker.LinkTitle)
	if c.Linker.LinkTitle == "" {
		c.Linker.LinkTitle = defaultLinkTitle
	}
	c.Linker.Comment = strings.TrimSpace(c.Linker.Comment)
	if c.Linker.Comment == "" {
		c.Linker.Comment = defaultLinkerComment
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
