package openlibrary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"nytbot/internal/services"
)

const component = "openlibrary"

// Client reads editions and works from Open Library and saves work edits
// under an authenticated session.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. A cookie jar is attached
// when the client has none, since writes depend on the login session cookie.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRequestsPerSecond caps the request rate. Non-positive values disable pacing.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries sets how many times a failed read is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

// New creates an Open Library client.
func New(baseURL, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "base url required", nil)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  strings.TrimSpace(userAgent),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.httpClient.Jar = jar
	}
	return client, nil
}

// Login authenticates with S3-style access and secret keys. The session cookie
// is retained by the client for later writes.
func (c *Client) Login(ctx context.Context, access, secret string) error {
	access = strings.TrimSpace(access)
	secret = strings.TrimSpace(secret)
	if access == "" || secret == "" {
		return services.Wrap(services.ErrConfiguration, component, "login", "access and secret keys required", nil)
	}
	body, err := json.Marshal(map[string]string{"access": access, "secret": secret})
	if err != nil {
		return fmt.Errorf("encode login: %w", err)
	}
	resp, latency, err := c.send(ctx, http.MethodPost, c.baseURL+"/account/login", body)
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "login", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if err := statusError(resp.StatusCode, "login", latency); err != nil {
		return err
	}
	if !c.hasSession() {
		return services.Wrap(services.ErrAuthentication, component, "login", "no session cookie returned", nil)
	}
	return nil
}

// EditionByISBN resolves an ISBN to its edition record.
func (c *Client) EditionByISBN(ctx context.Context, isbn string) (*Edition, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, services.Wrap(services.ErrValidation, component, "edition", "isbn required", nil)
	}
	var edition Edition
	if err := c.getJSON(ctx, "edition", "/isbn/"+url.PathEscape(isbn)+".json", &edition); err != nil {
		return nil, err
	}
	return &edition, nil
}

// Work fetches a work document by key.
func (c *Client) Work(ctx context.Context, key string) (*Work, error) {
	path, err := documentPath(key)
	if err != nil {
		return nil, err
	}
	var work Work
	if err := c.getJSON(ctx, "work", path+".json", &work); err != nil {
		return nil, err
	}
	return &work, nil
}

// SaveWork writes the work document back with an edit comment. It requires a
// prior successful Login.
func (c *Client) SaveWork(ctx context.Context, work *Work, comment string) error {
	if work == nil {
		return services.Wrap(services.ErrValidation, component, "save work", "work required", nil)
	}
	path, err := documentPath(work.Key())
	if err != nil {
		return err
	}
	doc := work.Clone()
	if comment = strings.TrimSpace(comment); comment != "" {
		if err := doc.setField("_comment", comment); err != nil {
			return err
		}
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode work: %w", err)
	}
	resp, latency, err := c.send(ctx, http.MethodPut, c.baseURL+path+".json", body)
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "save work", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return statusError(resp.StatusCode, "save work", latency)
}

// RequestImport asks Open Library to import an edition it does not have yet.
// Visiting the non-JSON ISBN page triggers the import from partner sources.
func (c *Client) RequestImport(ctx context.Context, isbn string) error {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return services.Wrap(services.ErrValidation, component, "import", "isbn required", nil)
	}
	resp, latency, err := c.send(ctx, http.MethodGet, c.baseURL+"/isbn/"+url.PathEscape(isbn), nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, component, "import", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return statusError(resp.StatusCode, "import", latency)
}

func (c *Client) getJSON(ctx context.Context, operation, path string, target any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff<<uint(attempt-1)); err != nil {
				return err
			}
		}
		resp, latency, err := c.send(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = services.Wrap(services.ErrTransient, component, operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
			continue
		}
		if err := statusError(resp.StatusCode, operation, latency); err != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if retryable(resp.StatusCode) {
				lastErr = err
				continue
			}
			return err
		}
		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		if err != nil {
			return services.Wrap(services.ErrTransient, component, operation, "decode response", err)
		}
		return nil
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, endpoint string, body []byte) (*http.Response, time.Duration, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	return resp, time.Since(requestStart), err
}

func (c *Client) hasSession() bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	for _, cookie := range c.httpClient.Jar.Cookies(base) {
		if cookie.Name == "session" && cookie.Value != "" {
			return true
		}
	}
	return false
}

func statusError(status int, operation string, latency time.Duration) error {
	detail := fmt.Sprintf("status %d (latency=%v)", status, latency)
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuthentication, component, operation, detail, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, component, operation, detail, nil)
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, component, operation, detail, nil)
	case status >= 400 && status < 500:
		return services.Wrap(services.ErrValidation, component, operation, detail, nil)
	default:
		return services.Wrap(services.ErrTransient, component, operation, detail, nil)
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func documentPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "/works/") && !strings.HasPrefix(key, "/books/") {
		return "", services.Wrap(services.ErrValidation, component, "document", fmt.Sprintf("unexpected key %q", key), nil)
	}
	return strings.TrimSuffix(key, ".json"), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
