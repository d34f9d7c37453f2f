// Package nyt is a small read-only client for the New York Times Books API.
//
// It covers the three endpoints the collector needs (full overview, paginated
// named lists, and list names), paces requests with a token bucket, and
// retries 429 responses a bounded number of times before giving up.
package nyt
