package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/extract"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/scraping"
	"github.com/jonathan/jobscout/internal/server/ratelimit"
	"github.com/jonathan/jobscout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBoard(name string) *boards.Board {
	return boards.MustNew(boards.Profile{
		Name:        name,
		BaseURL:     "https://" + name + ".test/",
		ListingPath: "search",
		DetailPath:  "job/{id}",
		Rules: boards.Rules{
			Card:        extract.HTMLRule("li.job"),
			ID:          extract.AttrRule("li.job", "data-id"),
			Title:       extract.TextRule("h3"),
			Company:     extract.TextRule(".company"),
			Location:    extract.TextRule(".city"),
			Description: extract.TextRule("#desc"),
		},
		Params:      boards.QueryParams{Query: "q", Location: "l", Offset: "page"},
		OffsetStart: 1,
	})
}

// fakeBoards serves two cards on page 1 of every board and nothing after.
// Boards listed in blocked answer 403.
func fakeBoards(blocked ...string) fetch.Fetcher {
	return fetch.FetcherFunc(func(ctx context.Context, req fetch.Request) (*fetch.Page, error) {
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, err
		}
		host := strings.TrimSuffix(u.Host, ".test")
		for _, b := range blocked {
			if b == host {
				return nil, fetch.StatusError(req.URL, http.StatusForbidden)
			}
		}
		if strings.HasPrefix(u.Path, "/job/") {
			return &fetch.Page{URL: req.URL, HTML: `<div id="desc">Write Go.</div>`, StatusCode: 200}, nil
		}
		if u.Query().Get("page") != "1" {
			return &fetch.Page{URL: req.URL, HTML: `<ul></ul>`, StatusCode: 200}, nil
		}
		var b strings.Builder
		b.WriteString("<ul>")
		for i := 1; i <= 2; i++ {
			fmt.Fprintf(&b, `<li class="job" data-id="%s-%d"><h3>Gopher %d</h3><span class="company">Acme</span><span class="city">%s</span></li>`,
				host, i, i, u.Query().Get("l"))
		}
		b.WriteString("</ul>")
		return &fetch.Page{URL: req.URL, HTML: b.String(), StatusCode: 200}, nil
	})
}

func newTestServer(t *testing.T, fetcher fetch.Fetcher, rl *ratelimit.Config) *Server {
	t.Helper()
	registry, err := boards.NewRegistry(testBoard("alpha"), testBoard("beta"))
	require.NoError(t, err)

	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	s, err := New(Config{
		Coordinator: scraping.NewCoordinator(registry, fetcher, nil),
		RateLimit:   rl,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)

	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSearchQuery(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)

	w := do(t, s, http.MethodGet, "/search?q=golang&location=Lyon&boards=alpha,beta", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, []string{"alpha", "beta"}, resp.Boards)
	assert.Equal(t, "Gopher 1", resp.Jobs[0].Title)
	assert.Equal(t, "Lyon", resp.Jobs[0].Location)
	assert.Equal(t, "Write Go.", resp.Jobs[0].Description)
	assert.NotEmpty(t, resp.RequestID)
}

func TestSearchQuery_PartialFailure(t *testing.T) {
	s := newTestServer(t, fakeBoards("beta"), nil)

	w := do(t, s, http.MethodGet, "/search?q=golang", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count    int `json:"count"`
		Failures []struct {
			Source string `json:"source"`
			Kind   string `json:"kind"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "beta", resp.Failures[0].Source)
	assert.Equal(t, "blocked", resp.Failures[0].Kind)
}

func TestSearchQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		blocked []string
		status  int
		contain string
	}{
		{name: "missing query", target: "/search", status: http.StatusBadRequest, contain: "q - is required"},
		{name: "bad limit", target: "/search?q=go&limit=many", status: http.StatusBadRequest, contain: "limit"},
		{name: "limit out of range", target: "/search?q=go&limit=5000", status: http.StatusBadRequest},
		{name: "bad job type", target: "/search?q=go&job_type=gig", status: http.StatusBadRequest},
		{name: "unknown board", target: "/search?q=go&boards=monster", status: http.StatusBadRequest, contain: "monster"},
		{name: "single board blocked", target: "/search?q=go&boards=alpha", blocked: []string{"alpha"}, status: http.StatusBadGateway, contain: `"kind":"blocked"`},
		{name: "all boards blocked", target: "/search?q=go", blocked: []string{"alpha", "beta"}, status: http.StatusBadGateway, contain: "all 2 boards failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, fakeBoards(tt.blocked...), nil)
			w := do(t, s, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.contain != "" {
				assert.Contains(t, w.Body.String(), tt.contain)
			}
		})
	}
}

func TestSearchBody(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)

	w := do(t, s, http.MethodPost, "/search", `{"query": "golang", "limit": 1, "boards": ["beta"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "beta", resp.Jobs[0].Source)
}

func TestSearchBody_SchemaErrors(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)

	for _, body := range []string{
		`{"limit": 5}`,
		`{"query": "go", "pages": 2}`,
		`{"query": "go", "date_posted": "yesterday"}`,
	} {
		w := do(t, s, http.MethodPost, "/search", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := do(t, s, http.MethodPost, "/search", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestSearchBody_TooLarge(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)
	body := `{"query": "` + strings.Repeat("a", maxBodyBytes) + `"}`

	w := do(t, s, http.MethodPost, "/search", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSearchStream(t *testing.T) {
	s := newTestServer(t, fakeBoards("beta"), nil)

	w := do(t, s, http.MethodGet, "/search/stream?q=golang", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var events []string
	scanner := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
			events = append(events, name)
		}
	}
	assert.ElementsMatch(t, []string{"board", "board", "complete"}, events)
	assert.Equal(t, "complete", events[len(events)-1])
	assert.Contains(t, w.Body.String(), `"count":2`)
}

func TestSearchStream_Error(t *testing.T) {
	s := newTestServer(t, fakeBoards("alpha", "beta"), nil)

	w := do(t, s, http.MethodGet, "/search/stream?q=golang", "")
	assert.Contains(t, w.Body.String(), "event: error")
}

func TestBoardsEndpoint(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)

	w := do(t, s, http.MethodGet, "/boards", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Boards []BoardResponse `json:"boards"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Boards, 2)
	assert.Equal(t, "alpha", resp.Boards[0].Name)
	assert.Equal(t, []string{"location"}, resp.Boards[0].Filters)

	w = do(t, s, http.MethodGet, "/boards/beta", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/boards/monster", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, fakeBoards(), &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/search", Method: "GET", Limit: 1, Window: time.Hour, Burst: 1},
		},
	})

	w := do(t, s, http.MethodGet, "/search?q=go", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = do(t, s, http.MethodGet, "/search?q=go", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	// Health checks are never limited
	w = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSMiddleware_OPTIONS(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)

	w := do(t, s, http.MethodOptions, "/search", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID_ReusesValidClientID(t *testing.T) {
	s := newTestServer(t, fakeBoards(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "6f1c1a52-8f0e-4c55-9d7e-0c8a9f6b2d11")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "6f1c1a52-8f0e-4c55-9d7e-0c8a9f6b2d11", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "<script>")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get("X-Request-ID"))
}

func TestNew_RequiresCoordinator(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestParamsFromQuery(t *testing.T) {
	q, _ := url.ParseQuery("q=go&location=Paris&limit=10&offset=2&single_page=true&boards=a,b&boards=c&radius=25&job_type=contract&experience=entry&date_posted=past_week")
	p, err := paramsFromQuery(q)
	require.NoError(t, err)

	assert.Equal(t, types.SearchParams{
		Query:      "go",
		Location:   "Paris",
		Limit:      10,
		Offset:     2,
		SinglePage: true,
		Boards:     []string{"a", "b", "c"},
		Radius:     25,
		JobType:    types.JobTypeContract,
		Experience: types.ExperienceEntry,
		DatePosted: types.DatePostedPastWeek,
	}, p)

	_, err = paramsFromQuery(url.Values{"q": {"go"}, "single_page": {"maybe"}})
	assert.Error(t, err)
}
