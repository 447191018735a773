package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	page, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, page.URL)
	assert.Contains(t, page.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.False(t, page.FromCache)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindInvalidURL, fetchErr.Kind)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestHTTPFetcher_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, KindRateLimited},
		{"blocked", http.StatusForbidden, KindBlocked},
		{"not found", http.StatusNotFound, KindNetwork},
		{"server error", http.StatusBadGateway, KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			page, err := NewHTTPFetcher(nil).Fetch(context.Background(), Request{URL: server.URL})
			require.Error(t, err)
			require.NotNil(t, page) // Page is returned even on error
			assert.Equal(t, tt.status, page.StatusCode)

			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.kind, fetchErr.Kind)
			assert.Equal(t, tt.status, fetchErr.StatusCode)
		})
	}
}

func TestHTTPFetcher_SendsHeaders(t *testing.T) {
	var gotUA, gotLang, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotCustom = r.Header.Get("X-Board")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(&Options{
		UserAgent: "jobscout-test",
		Headers:   map[string]string{"Accept-Language": "en", "X-Board": "default"},
	})
	_, err := f.Fetch(context.Background(), Request{
		URL:     server.URL,
		Headers: map[string]string{"Accept-Language": "fr-FR"},
	})
	require.NoError(t, err)
	assert.Equal(t, "jobscout-test", gotUA)
	assert.Equal(t, "fr-FR", gotLang)
	assert.Equal(t, "default", gotCustom)
}

func TestHTTPFetcher_IgnoresInteraction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	page, err := NewHTTPFetcher(nil).Fetch(context.Background(), Request{
		URL:         server.URL,
		Interaction: &Interaction{Steps: []Step{{Action: ActionClick, Selector: "#accept"}}},
	})
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "ok")
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher(nil).Fetch(ctx, Request{URL: server.URL})
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindNetwork, fetchErr.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatusError(t *testing.T) {
	assert.Nil(t, StatusError("http://x", 200))
	assert.Nil(t, StatusError("http://x", 204))

	err := StatusError("http://x", 429)
	require.NotNil(t, err)
	assert.Equal(t, KindRateLimited, err.Kind)
	assert.Contains(t, err.Error(), "429")
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "blocked", KindBlocked.String())
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "invalid_url", KindInvalidURL.String())
	assert.Equal(t, "action", KindAction.String())
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultUserAgent, opts.UserAgent)

	filled := (&Options{Timeout: -1}).withDefaults()
	assert.Equal(t, DefaultTimeout, filled.Timeout)
	assert.Equal(t, DefaultUserAgent, filled.UserAgent)
}
