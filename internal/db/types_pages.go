package db

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// FetchedPage represents a cached listing or detail page
type FetchedPage struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	Source      *string   `json:"source,omitempty"`
	RawHTML     *string   `json:"-"` // Don't serialize (large)
	ContentHash *string   `json:"content_hash,omitempty"`
	HTTPStatus  *int      `json:"http_status,omitempty"`
	// Error tracking
	FetchStatus        string     `json:"fetch_status"` // 'success', 'error', 'not_found', 'blocked', 'rate_limited'
	ErrorMessage       *string    `json:"error_message,omitempty"`
	IsPermanentFailure bool       `json:"is_permanent_failure"`
	RetryCount         int        `json:"retry_count"`
	RetryAfter         *time.Time `json:"retry_after,omitempty"`
	// Timestamps
	FetchedAt      time.Time  `json:"fetched_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FetchStatus constants for fetched pages
const (
	FetchStatusSuccess     = "success"      // Page fetched successfully
	FetchStatusError       = "error"        // Generic error (may retry)
	FetchStatusNotFound    = "not_found"    // 404/410 - permanent failure
	FetchStatusBlocked     = "blocked"      // 403 - refused by server
	FetchStatusRateLimited = "rate_limited" // 429 - back off and retry later
)

// DefaultPageCacheTTL is the default time-to-live for cached pages.
// Listings move quickly, so this is much shorter than a crawl cache.
const DefaultPageCacheTTL = 6 * time.Hour

// IsPermanentHTTPStatus returns true if the HTTP status indicates a permanent failure
func IsPermanentHTTPStatus(status int) bool {
	switch status {
	case http.StatusNotFound, http.StatusGone, http.StatusUnavailableForLegalReasons:
		return true
	default:
		return false
	}
}

// FetchStatusFromHTTP determines fetch status from HTTP status code
func FetchStatusFromHTTP(status int) string {
	switch {
	case status >= 200 && status < 300:
		return FetchStatusSuccess
	case status == http.StatusNotFound || status == http.StatusGone:
		return FetchStatusNotFound
	case status == http.StatusForbidden:
		return FetchStatusBlocked
	case status == http.StatusTooManyRequests:
		return FetchStatusRateLimited
	default:
		return FetchStatusError
	}
}

// HashContent returns the hex SHA-256 of content
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// IsExpired reports whether the page's explicit expiry has passed
func (p *FetchedPage) IsExpired() bool {
	if p.ExpiresAt == nil {
		return false
	}
	return !time.Now().Before(*p.ExpiresAt)
}

// IsFresh reports whether the page was fetched within maxAge
func (p *FetchedPage) IsFresh(maxAge time.Duration) bool {
	return time.Since(p.FetchedAt) < maxAge
}
