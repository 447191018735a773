package db

import (
	"testing"
	"time"
)

func TestHashContent(t *testing.T) {
	// Same input should produce same hash
	hash1 := HashContent("<html>listing</html>")
	hash2 := HashContent("<html>listing</html>")
	if hash1 != hash2 {
		t.Errorf("Same content produced different hashes: %s vs %s", hash1, hash2)
	}

	hash3 := HashContent("<html>other</html>")
	if hash1 == hash3 {
		t.Errorf("Different content produced same hash: %s", hash1)
	}

	// SHA-256 hex
	if len(hash1) != 64 {
		t.Errorf("Hash length is %d, expected 64", len(hash1))
	}
}

func TestFetchStatusFromHTTP(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{200, FetchStatusSuccess},
		{204, FetchStatusSuccess},
		{403, FetchStatusBlocked},
		{404, FetchStatusNotFound},
		{410, FetchStatusNotFound},
		{429, FetchStatusRateLimited},
		{500, FetchStatusError},
		{0, FetchStatusError},
	}

	for _, tt := range tests {
		result := FetchStatusFromHTTP(tt.status)
		if result != tt.expected {
			t.Errorf("FetchStatusFromHTTP(%d) = %q, expected %q", tt.status, result, tt.expected)
		}
	}
}

func TestIsPermanentHTTPStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected bool
	}{
		{404, true},
		{410, true},
		{451, true},
		{403, false},
		{429, false},
		{500, false},
		{200, false},
	}

	for _, tt := range tests {
		result := IsPermanentHTTPStatus(tt.status)
		if result != tt.expected {
			t.Errorf("IsPermanentHTTPStatus(%d) = %v, expected %v", tt.status, result, tt.expected)
		}
	}
}

func TestFetchedPage_IsFresh(t *testing.T) {
	tests := []struct {
		name      string
		fetchedAt time.Time
		maxAge    time.Duration
		expected  bool
	}{
		{"just fetched", time.Now(), time.Hour, true},
		{"within window", time.Now().Add(-30 * time.Minute), time.Hour, true},
		{"past window", time.Now().Add(-2 * time.Hour), time.Hour, false},
		{"default ttl", time.Now().Add(-DefaultPageCacheTTL - time.Minute), DefaultPageCacheTTL, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &FetchedPage{FetchedAt: tt.fetchedAt}
			if got := page.IsFresh(tt.maxAge); got != tt.expected {
				t.Errorf("IsFresh() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestFetchedPage_IsExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	if (&FetchedPage{}).IsExpired() {
		t.Error("page without expiry should not be expired")
	}
	if !(&FetchedPage{ExpiresAt: &past}).IsExpired() {
		t.Error("page with past expiry should be expired")
	}
	if (&FetchedPage{ExpiresAt: &future}).IsExpired() {
		t.Error("page with future expiry should not be expired")
	}
}
