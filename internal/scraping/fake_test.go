package scraping

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/extract"
	"github.com/jonathan/jobscout/internal/fetch"
)

// fixedNow is 2024-06-10, so "il y a 2 semaines" is 2024-05-27.
var fixedNow = time.Date(2024, 6, 10, 15, 4, 5, 0, time.UTC)

func testProfile(name string) boards.Profile {
	return boards.Profile{
		Name:        name,
		BaseURL:     "https://" + name + ".test/",
		ListingPath: "search",
		DetailPath:  "job/{id}",
		Rules: boards.Rules{
			Card:        extract.HTMLRule("article.job"),
			ID:          extract.AttrRule("article.job", "data-id"),
			Title:       extract.TextRule("h2"),
			Company:     extract.TextRule(".company"),
			Location:    extract.TextRule(".city"),
			Description: extract.TextRule("#desc"),
			DatePosted:  ptr(extract.TextRule(".date").WithTransform(extract.RelativeDate)),
		},
		Params:      boards.QueryParams{Query: "q", Location: "where", Offset: "page"},
		OffsetStart: 1,
	}
}

func testBoard(name string) *boards.Board {
	return boards.MustNew(testProfile(name))
}

func ptr[T any](v T) *T { return &v }

// fakeSite serves listing pages with a fixed number of cards per page and a
// detail page per card. It records every request.
type fakeSite struct {
	mu sync.Mutex

	// cards[i] is the card count on listing page i+1; pages past the end are empty.
	cards []int
	// listingStatus fails every listing page of a host with the given status.
	listingStatus map[string]int
	// detailStatus fails individual detail pages by id.
	detailStatus map[string]int
	// noID drops the data-id attribute from every card.
	noID bool

	listings     []string
	details      []string
	interactions int
}

func (s *fakeSite) Fetch(ctx context.Context, req fetch.Request) (*fetch.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Interaction != nil {
		s.interactions++
	}

	host := strings.TrimSuffix(u.Host, ".test")
	switch {
	case u.Path == "/search":
		s.listings = append(s.listings, req.URL)
		if status, ok := s.listingStatus[host]; ok {
			return nil, fetch.StatusError(req.URL, status)
		}
		page, _ := strconv.Atoi(u.Query().Get("page"))
		n := 0
		if page >= 1 && page <= len(s.cards) {
			n = s.cards[page-1]
		}
		return &fetch.Page{URL: req.URL, HTML: s.listingHTML(host, page, n), StatusCode: http.StatusOK}, nil

	case strings.HasPrefix(u.Path, "/job/"):
		id := strings.TrimPrefix(u.Path, "/job/")
		s.details = append(s.details, id)
		if status, ok := s.detailStatus[id]; ok {
			return nil, fetch.StatusError(req.URL, status)
		}
		html := fmt.Sprintf(`<html><body><div id="desc">Description of %s</div></body></html>`, id)
		return &fetch.Page{URL: req.URL, HTML: html, StatusCode: http.StatusOK}, nil
	}
	return nil, fetch.StatusError(req.URL, http.StatusNotFound)
}

func (s *fakeSite) listingHTML(host string, page, n int) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("%s-%d-%d", host, page, i)
		attr := fmt.Sprintf(` data-id="%s"`, id)
		if s.noID {
			attr = ""
		}
		fmt.Fprintf(&b, `<article class="job"%s>
			<h2>Go <b>Engineer</b> %d</h2>
			<span class="company">Acme</span>
			<span class="city">Lyon<br>69</span>
			<span class="date">il y a 2 semaines</span>
		</article>`, attr, i)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

func (s *fakeSite) detailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.details)
}

func (s *fakeSite) listingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listings)
}
