package nyt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"nytbot/internal/services"
)

const component = "nyt"

// pageSize is the fixed window lists.json returns per offset.
const pageSize = 20

// Client provides read-only access to the NYT Books API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryWait  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRequestInterval spaces consecutive requests by at least interval.
// A non-positive interval disables pacing.
func WithRequestInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryWait sets the pause before retrying a 429 response.
func WithRetryWait(wait time.Duration) Option {
	return func(c *Client) {
		if wait >= 0 {
			c.retryWait = wait
		}
	}
}

// New creates an NYT Books API client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(6*time.Second), 1),
		maxRetries: 10,
		retryWait:  6 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Overview fetches every list published on date. A zero date asks for the
// current lists.
func (c *Client) Overview(ctx context.Context, date time.Time) (*Overview, error) {
	params := url.Values{}
	if !date.IsZero() {
		params.Set("published_date", formatDate(date))
	}
	var payload overviewResponse
	if err := c.get(ctx, "overview", "/lists/full-overview.json", params, &payload); err != nil {
		return nil, err
	}
	return &payload.Results, nil
}

// ListPage fetches one offset window of a named list.
func (c *Client) ListPage(ctx context.Context, list string, date time.Time, offset int) (*ListPage, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, services.Wrap(services.ErrValidation, component, "list", "list name required", nil)
	}
	params := url.Values{}
	params.Set("list", list)
	if date.IsZero() {
		params.Set("published-date", "current")
	} else {
		params.Set("published-date", formatDate(date))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var payload ListPage
	if err := c.get(ctx, "list", "/lists.json", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// List walks every offset window of a named list and returns all entries.
func (c *Client) List(ctx context.Context, list string, date time.Time) ([]ListEntry, error) {
	var entries []ListEntry
	offset := 0
	for {
		page, err := c.ListPage(ctx, list, date, offset)
		if err != nil {
			return entries, err
		}
		entries = append(entries, page.Results...)
		offset += len(page.Results)
		if len(page.Results) == 0 || len(page.Results) < pageSize || offset >= page.NumResults {
			return entries, nil
		}
	}
}

// Names lists every best-seller list with its publication cadence.
func (c *Client) Names(ctx context.Context) ([]ListName, error) {
	var payload namesResponse
	if err := c.get(ctx, "names", "/lists/names.json", url.Values{}, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, target any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, operation, "parse url", err)
	}
	params.Set("api-key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return services.Wrap(services.ErrValidation, component, operation, "build request", err)
		}
		req.Header.Set("Accept", "application/json")

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return services.Wrap(services.ErrTransient, component, operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			resp.Body.Close()
			if err := sleep(ctx, c.retryWait); err != nil {
				return err
			}
			continue
		}

		err = decodeResponse(resp, operation, latency, target)
		resp.Body.Close()
		return err
	}
}

func decodeResponse(resp *http.Response, operation string, latency time.Duration, target any) error {
	status := fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, latency)
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrAuthentication, component, operation, status, nil)
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, component, operation, status, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, component, operation, status, nil)
	default:
		return services.Wrap(services.ErrTransient, component, operation, status, nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrTransient, component, operation, "decode response", err)
	}
	return nil
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

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
