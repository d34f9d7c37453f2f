package testsupport

import (
	"path/filepath"
	"testing"

	"nytbot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Request pacing and retry waits are disabled so fakes answer immediately.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ResultsDir = filepath.Join(base, "results")
	cfgVal.Paths.BestSellersFile = filepath.Join(base, "result.json")
	cfgVal.Paths.ReviewsFile = filepath.Join(base, "reviews.json")
	cfgVal.NYT.APIKey = "test"
	cfgVal.NYT.RequestIntervalSeconds = 0
	cfgVal.NYT.RetryWaitSeconds = 0
	cfgVal.NYT.MaxRetries = 1
	cfgVal.OpenLibrary.RequestsPerSecond = 0
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithNYT points the NYT client at baseURL, usually an httptest server.
func WithNYT(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.NYT.BaseURL = baseURL
	}
}

// WithOpenLibrary points the Open Library client at baseURL.
func WithOpenLibrary(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenLibrary.BaseURL = baseURL
	}
}

// WithOpenLibraryCredentials sets the Open Library access and secret keys.
func WithOpenLibraryCredentials(access, secret string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenLibrary.AccessKey = access
		b.cfg.OpenLibrary.SecretKey = secret
	}
}

// WithNtfy points notifications at an ntfy topic URL.
func WithNtfy(topicURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topicURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
