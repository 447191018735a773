package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/jobscout/internal/db"
)

// PageStore is the subset of *db.DB the cached fetcher needs.
type PageStore interface {
	ShouldSkipURL(ctx context.Context, pageURL string) (bool, int, string, error)
	GetFreshPage(ctx context.Context, pageURL string, maxAge time.Duration) (*db.FetchedPage, error)
	UpsertPage(ctx context.Context, page *db.FetchedPage) error
	RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error
}

// CachedFetcher wraps a Fetcher with database-backed caching.
type CachedFetcher struct {
	next     Fetcher
	store    PageStore
	cacheTTL time.Duration
	verbose  bool
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	Verbose  bool
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: db.DefaultPageCacheTTL,
	}
}

// NewCachedFetcher creates a cached fetcher over next. A nil store disables caching.
func NewCachedFetcher(next Fetcher, store PageStore, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = db.DefaultPageCacheTTL
	}
	return &CachedFetcher{
		next:     next,
		store:    store,
		cacheTTL: ttl,
		verbose:  config.Verbose,
	}
}

// Fetch returns a fresh cached copy of req.URL when one exists, otherwise
// fetches through the wrapped fetcher and stores the result. URLs that failed
// permanently, or are inside a retry backoff, are not requested again.
// Requests carrying an interaction always go to the wrapped fetcher so the
// interaction runs.
func (f *CachedFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	if f.store == nil {
		return f.next.Fetch(ctx, req)
	}

	// Step 1: Check if URL should be skipped (permanent failure or backoff)
	skip, status, reason, err := f.store.ShouldSkipURL(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check skip status: %w", err)
	}
	if skip {
		return nil, &Error{
			URL:        req.URL,
			Kind:       ClassifyStatus(status),
			StatusCode: status,
			Message:    fmt.Sprintf("URL skipped: %s", reason),
		}
	}

	// Step 2: Try to get fresh cached page
	if req.Interaction == nil {
		cached, err := f.store.GetFreshPage(ctx, req.URL, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if cached != nil {
			if f.verbose {
				log.Printf("[FETCH] Cache hit: %s", req.URL)
			}
			return &Page{
				URL:        cached.URL,
				HTML:       derefString(cached.RawHTML),
				StatusCode: derefInt(cached.HTTPStatus),
				FromCache:  true,
			}, nil
		}
	}

	// Step 3: Fetch fresh content
	page, err := f.next.Fetch(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			statusCode := 0
			var fetchErr *Error
			if errors.As(err, &fetchErr) {
				statusCode = fetchErr.StatusCode
			}
			if recErr := f.store.RecordFailedFetch(ctx, req.URL, statusCode, err.Error()); recErr != nil && f.verbose {
				log.Printf("[FETCH] Failed to record failure for %s: %v", req.URL, recErr)
			}
		}
		return page, err
	}

	// Step 4: Store in cache; the fetch already succeeded so errors are only logged
	stored := &db.FetchedPage{
		URL:         req.URL,
		RawHTML:     &page.HTML,
		HTTPStatus:  &page.StatusCode,
		FetchStatus: db.FetchStatusSuccess,
	}
	if err := f.store.UpsertPage(ctx, stored); err != nil && f.verbose {
		log.Printf("[FETCH] Failed to cache %s: %v", req.URL, err)
	}

	return page, nil
}

// Helper functions

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
