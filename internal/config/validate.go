package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. API keys are not required here;
// each job checks the keys it needs with RequireNYT or RequireOpenLibraryWrite
// so that `nytbot config validate` works on a fresh machine.
func (c *Config) Validate() error {
	if err := c.validateNYT(); err != nil {
		return err
	}
	if err := c.validateOpenLibrary(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNYT() error {
	if err := validateURL("nyt.base_url", c.NYT.BaseURL); err != nil {
		return err
	}
	if c.NYT.RequestIntervalSeconds < 0 {
		return errors.New("nyt.request_interval_seconds must be >= 0")
	}
	if c.NYT.MaxRetries < 0 {
		return errors.New("nyt.max_retries must be >= 0")
	}
	return nil
}

func (c *Config) validateOpenLibrary() error {
	if err := validateURL("openlibrary.base_url", c.OpenLibrary.BaseURL); err != nil {
		return err
	}
	if c.OpenLibrary.RequestsPerSecond < 0 {
		return errors.New("openlibrary.requests_per_second must be >= 0")
	}
	if c.OpenLibrary.MaxRetries < 0 {
		return errors.New("openlibrary.max_retries must be >= 0")
	}
	if (c.OpenLibrary.AccessKey == "") != (c.OpenLibrary.SecretKey == "") {
		return errors.New("openlibrary.access_key and openlibrary.secret_key must be set together")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	return validateURL("notifications.ntfy_topic", c.Notifications.NtfyTopic)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// RequireNYT returns an error when the NYT API key is missing.
func (c *Config) RequireNYT() error {
	if c.NYT.APIKey != "" {
		return nil
	}
	return fmt.Errorf("nyt.api_key is required. Set NYT_API_KEY env var or edit %s (create with 'nytbot config init')", displayConfigPath())
}

// RequireOpenLibraryWrite returns an error when Open Library credentials are
// missing. Dry runs only read from Open Library and skip this check.
func (c *Config) RequireOpenLibraryWrite() error {
	if c.HasOpenLibraryCredentials() {
		return nil
	}
	return fmt.Errorf("openlibrary.access_key and openlibrary.secret_key are required for writes. Set OL_ACCESS_KEY/OL_SECRET_KEY or edit %s", displayConfigPath())
}

func displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}

func validateURL(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}
