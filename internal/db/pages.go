package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pageColumns = `id, url, source, raw_html, content_hash, http_status, fetch_status, error_message,
	is_permanent_failure, retry_count, retry_after, fetched_at, expires_at, last_accessed_at,
	created_at, updated_at`

// GetPageByURL retrieves a cached page by URL
func (db *DB) GetPageByURL(ctx context.Context, pageURL string) (*FetchedPage, error) {
	var p FetchedPage
	err := db.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM fetched_pages WHERE url = $1`,
		pageURL,
	).Scan(&p.ID, &p.URL, &p.Source, &p.RawHTML, &p.ContentHash, &p.HTTPStatus, &p.FetchStatus,
		&p.ErrorMessage, &p.IsPermanentFailure, &p.RetryCount, &p.RetryAfter, &p.FetchedAt,
		&p.ExpiresAt, &p.LastAccessedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fetched page: %w", err)
	}
	return &p, nil
}

// GetFreshPage retrieves a page only if it's not stale and was successful
func (db *DB) GetFreshPage(ctx context.Context, pageURL string, maxAge time.Duration) (*FetchedPage, error) {
	page, err := db.GetPageByURL(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	if !page.IsFresh(maxAge) || page.IsExpired() {
		return nil, nil // Stale, should re-fetch
	}

	// Only return successful pages from cache
	if page.FetchStatus != FetchStatusSuccess {
		return nil, nil
	}

	_ = db.TouchPage(ctx, page.ID)

	return page, nil
}

// ShouldSkipURL checks if a URL should be skipped due to a previous permanent
// failure or an active retry backoff. The returned status is the HTTP status
// recorded with the failure, or 0.
func (db *DB) ShouldSkipURL(ctx context.Context, pageURL string) (bool, int, string, error) {
	page, err := db.GetPageByURL(ctx, pageURL)
	if err != nil {
		return false, 0, "", err
	}
	if page == nil {
		return false, 0, "", nil // Never tried, don't skip
	}

	status := 0
	if page.HTTPStatus != nil {
		status = *page.HTTPStatus
	}

	// Skip permanently failed pages forever
	if page.IsPermanentFailure {
		reason := "permanent failure"
		if page.ErrorMessage != nil {
			reason = *page.ErrorMessage
		}
		return true, status, reason, nil
	}

	// Skip pages with retry_after in the future
	if page.RetryAfter != nil && time.Now().Before(*page.RetryAfter) {
		return true, status, "retry backoff", nil
	}

	return false, 0, "", nil
}

// UpsertPage inserts or updates a fetched page (for successful fetches)
func (db *DB) UpsertPage(ctx context.Context, page *FetchedPage) error {
	var contentHash *string
	if page.RawHTML != nil {
		hash := HashContent(*page.RawHTML)
		contentHash = &hash
	}

	expiresAt := page.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(DefaultPageCacheTTL)
		expiresAt = &t
	}

	fetchStatus := page.FetchStatus
	if fetchStatus == "" {
		fetchStatus = FetchStatusSuccess
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO fetched_pages (url, source, raw_html, content_hash, http_status, fetch_status,
		                            error_message, is_permanent_failure, retry_count, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW(), $9)
		 ON CONFLICT (url) DO UPDATE SET
		     source = COALESCE($2, fetched_pages.source),
		     raw_html = $3,
		     content_hash = $4,
		     http_status = $5,
		     fetch_status = $6,
		     error_message = $7,
		     is_permanent_failure = $8,
		     retry_count = 0,
		     retry_after = NULL,
		     fetched_at = NOW(),
		     expires_at = $9,
		     updated_at = NOW()
		 RETURNING id, fetched_at, created_at, updated_at`,
		page.URL, page.Source, page.RawHTML, contentHash, page.HTTPStatus, fetchStatus,
		page.ErrorMessage, page.IsPermanentFailure, expiresAt,
	).Scan(&page.ID, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert fetched page: %w", err)
	}
	return nil
}

// RecordFailedFetch records a failed fetch attempt with exponential backoff
func (db *DB) RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error {
	fetchStatus := FetchStatusFromHTTP(httpStatus)
	isPermanent := IsPermanentHTTPStatus(httpStatus)

	// Backoff: 1 min * 5^retry_count, capped at 2 hours.
	// Permanent failures never get a retry_after.
	_, err := db.pool.Exec(ctx,
		`INSERT INTO fetched_pages (url, http_status, fetch_status, error_message, is_permanent_failure, retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, 1,
		         CASE WHEN $5 THEN NULL ELSE NOW() + INTERVAL '1 minute' END,
		         NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     http_status = $2,
		     fetch_status = $3,
		     error_message = $4,
		     is_permanent_failure = $5 OR fetched_pages.is_permanent_failure,
		     retry_count = fetched_pages.retry_count + 1,
		     retry_after = CASE
		         WHEN $5 OR fetched_pages.is_permanent_failure THEN NULL
		         ELSE NOW() + LEAST(
		             INTERVAL '1 minute' * POWER(5, LEAST(fetched_pages.retry_count, 3)),
		             INTERVAL '2 hours'
		         )
		     END,
		     fetched_at = NOW(),
		     updated_at = NOW()`,
		pageURL, httpStatus, fetchStatus, errorMsg, isPermanent,
	)
	if err != nil {
		return fmt.Errorf("failed to record failed fetch: %w", err)
	}
	return nil
}

// TouchPage updates the last_accessed_at timestamp
func (db *DB) TouchPage(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE fetched_pages SET last_accessed_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch fetched page: %w", err)
	}
	return nil
}

// PurgeExpiredPages deletes cached pages whose expiry has passed and returns
// how many rows were removed.
func (db *DB) PurgeExpiredPages(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM fetched_pages WHERE expires_at IS NOT NULL AND expires_at < NOW() AND NOT is_permanent_failure`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired pages: %w", err)
	}
	return tag.RowsAffected(), nil
}
