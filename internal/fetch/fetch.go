// Package fetch retrieves listing and detail pages for the scraper.
// Fetchers compose: an HTTP or browser fetcher at the bottom, optionally
// wrapped by a page cache and a per-host throttle.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Request describes one page to retrieve.
type Request struct {
	URL     string
	Headers map[string]string
	// Interaction runs in the rendered page before its HTML is read.
	// Fetchers that cannot execute it ignore it.
	Interaction *Interaction
}

// Page is a fetched document.
type Page struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
	FromCache   bool
}

// Fetcher retrieves pages. Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Page, error)

// Fetch calls f(ctx, req).
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Page, error) {
	return f(ctx, req)
}

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	// KindNetwork covers transport failures and unexpected HTTP statuses.
	KindNetwork ErrorKind = iota
	// KindRateLimited is an HTTP 429 from the target.
	KindRateLimited
	// KindBlocked is an HTTP 403 from the target.
	KindBlocked
	// KindInvalidURL is a URL that could not be requested at all.
	KindInvalidURL
	// KindAction is a failed page interaction in the browser.
	KindAction
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindBlocked:
		return "blocked"
	case KindInvalidURL:
		return "invalid_url"
	case KindAction:
		return "action"
	default:
		return "network"
	}
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusError builds the error for a non-2xx response, or returns nil.
func StatusError(urlStr string, status int) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &Error{
		URL:        urlStr,
		Kind:       ClassifyStatus(status),
		StatusCode: status,
		Message:    fmt.Sprintf("HTTP status %d", status),
	}
}

// ClassifyStatus maps an HTTP status onto an error kind.
func ClassifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusForbidden:
		return KindBlocked
	default:
		return KindNetwork
	}
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Verbose   bool
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (o *Options) withDefaults() *Options {
	if o == nil {
		return DefaultOptions()
	}
	out := *o
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.UserAgent == "" {
		out.UserAgent = DefaultUserAgent
	}
	return &out
}

// URL retrieves HTML content from a URL with a one-off client.
func URL(ctx context.Context, urlStr string, opts *Options) (*Page, error) {
	opts = opts.withDefaults()
	client := &http.Client{Timeout: opts.Timeout}
	return get(ctx, client, Request{URL: urlStr}, opts)
}

// HTTPFetcher fetches pages over plain HTTP with a shared client.
type HTTPFetcher struct {
	client  *http.Client
	options *Options
}

// NewHTTPFetcher creates an HTTP fetcher. A nil opts uses DefaultOptions.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	opts = opts.withDefaults()
	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		options: opts,
	}
}

// Fetch retrieves req.URL. Interactions are ignored.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	return get(ctx, f.client, req, f.options)
}

func get(ctx context.Context, client *http.Client, r Request, opts *Options) (*Page, error) {
	urlStr := r.URL

	// Validate URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Kind:    KindInvalidURL,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Kind:    KindInvalidURL,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	// Set headers; request headers override configured ones
	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	if opts.Verbose {
		log.Printf("[FETCH] GET %s", urlStr)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Kind:    KindNetwork,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			URL:        urlStr,
			Kind:       KindNetwork,
			StatusCode: resp.StatusCode,
			Message:    "failed to read response body",
			Cause:      err,
		}
	}

	page := &Page{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	// Page is returned alongside the error so callers can inspect the body
	if statusErr := StatusError(urlStr, resp.StatusCode); statusErr != nil {
		if opts.Verbose {
			log.Printf("[FETCH] %s returned %d (%s)", urlStr, resp.StatusCode, statusErr.Kind)
		}
		return page, statusErr
	}

	return page, nil
}
