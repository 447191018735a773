package scraping

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/extract"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/types"
)

// DefaultMaxPages bounds how many listing pages one board search may read.
const DefaultMaxPages = 100

// State is where a Loop is in its search.
type State int

// Loop states. A loop ends in StateDone or StateFailed.
const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StatePaginating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StatePaginating:
		return "paginating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// LoopOptions tunes a board search.
type LoopOptions struct {
	// MaxPages caps listing pages per search; 0 means DefaultMaxPages.
	MaxPages int
	// PageDelay is slept between listing pages.
	PageDelay time.Duration
	// Now supplies "today" for relative dates and missing dates.
	Now     func() time.Time
	Verbose bool
}

// Loop searches one board. A Loop is single-use and not safe for
// concurrent use; the coordinator creates one per board per search.
type Loop struct {
	source  boards.Source
	fetcher fetch.Fetcher
	rules   boards.Rules
	opts    LoopOptions

	state         State
	pages         int
	detailFetches int
}

// NewLoop creates a search loop for source. A nil opts uses defaults.
func NewLoop(source boards.Source, fetcher fetch.Fetcher, opts *LoopOptions) *Loop {
	o := LoopOptions{}
	if opts != nil {
		o = *opts
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Loop{
		source:  source,
		fetcher: fetcher,
		rules:   source.Rules(),
		opts:    o,
	}
}

// State returns the loop's current state.
func (l *Loop) State() State { return l.state }

// Pages returns how many listing pages were fetched.
func (l *Loop) Pages() int { return l.pages }

// DetailFetches returns how many detail pages were requested.
func (l *Loop) DetailFetches() int { return l.detailFetches }

// Run pages through the board's listings until params.Limit jobs are
// collected, a page has no cards, or SinglePage is set. Pages are requested
// in increasing offset order; the offset is a page index. On failure the jobs
// collected so far are returned along with a *SourceError.
func (l *Loop) Run(ctx context.Context, params types.SearchParams) ([]types.Job, error) {
	params = params.WithDefaults()
	today := types.Date(l.opts.Now())
	name := l.source.Name()
	jobs := make([]types.Job, 0, min(params.Limit, 64))

	offset := params.Offset
	for page := 0; ; page++ {
		if page >= l.opts.MaxPages {
			l.logf("[SCRAPE] %s: stopping after %d pages", name, page)
			l.state = StateDone
			return jobs, nil
		}

		l.state = StateFetching
		listingURL, err := l.source.ListingURL(params, offset)
		if err != nil {
			return jobs, l.fail(err)
		}

		req := fetch.Request{URL: listingURL, Headers: l.source.Headers()}
		if page == 0 {
			// Runs at most once per search
			req.Interaction = l.source.PreSearch()
		}

		l.logf("[SCRAPE] %s: page %d: %s", name, offset, listingURL)
		listing, err := l.fetcher.Fetch(ctx, req)
		l.pages++
		if err != nil {
			return jobs, l.fail(err)
		}

		l.state = StateExtracting
		cards, err := l.cards(listing.HTML)
		if err != nil {
			return jobs, l.fail(err)
		}
		if cards.Length() == 0 {
			l.logf("[SCRAPE] %s: no job cards on page %d, done", name, offset)
			l.state = StateDone
			return jobs, nil
		}

		for i := 0; i < cards.Length() && len(jobs) < params.Limit; i++ {
			job, err := l.buildJob(ctx, cards.Eq(i), today)
			if err != nil {
				return jobs, l.fail(err)
			}
			jobs = append(jobs, job)
		}

		if params.SinglePage || len(jobs) >= params.Limit {
			l.state = StateDone
			return jobs, nil
		}

		l.state = StatePaginating
		offset++
		if err := sleep(ctx, l.opts.PageDelay); err != nil {
			return jobs, l.fail(err)
		}
	}
}

func (l *Loop) fail(err error) error {
	l.state = StateFailed
	se := newSourceError(l.source.Name(), err)
	l.logf("[SCRAPE] %s: %v", l.source.Name(), se)
	return se
}

func (l *Loop) cards(html string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}
	return extract.ExtractAll(doc.Selection, l.rules.Card)
}

// buildJob reads the card fields, then fetches the detail page for the
// description. Missing fields stay empty. A detail page that fails to load
// for an ordinary reason only loses the description; a rate limit, block or
// cancellation stops the search.
func (l *Loop) buildJob(ctx context.Context, card *goquery.Selection, today time.Time) (types.Job, error) {
	now := l.opts.Now()
	job := types.Job{Source: l.source.Name(), DatePosted: today}

	fields := []struct {
		rule extract.Rule
		dst  *string
	}{
		{l.rules.ID, &job.ID},
		{l.rules.Title, &job.Title},
		{l.rules.Company, &job.Company},
		{l.rules.Location, &job.Location},
	}
	for _, f := range fields {
		v, _, err := extract.Extract(card, f.rule, now)
		if err != nil {
			return job, err
		}
		*f.dst = v
	}
	job.Title = strings.ReplaceAll(job.Title, "\n", " ")
	job.Location = strings.ReplaceAll(job.Location, "\n", " ")

	if l.rules.DatePosted != nil {
		v, ok, err := extract.Extract(card, *l.rules.DatePosted, now)
		if err != nil {
			return job, err
		}
		if ok {
			if d, perr := time.Parse(types.DateLayout, v); perr == nil {
				job.DatePosted = d
			}
		}
	}

	if job.ID == "" {
		l.logf("[SCRAPE] %s: card without id, skipping detail page", l.source.Name())
		return job, nil
	}

	detailURL, err := l.source.DetailURL(job.ID)
	if err != nil {
		return job, err
	}
	job.URL = detailURL

	l.detailFetches++
	detail, err := l.fetcher.Fetch(ctx, fetch.Request{URL: detailURL, Headers: l.source.Headers()})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return job, ctx.Err()
		case Classify(err) == KindRateLimited, Classify(err) == KindBlocked:
			return job, err
		default:
			l.logf("[SCRAPE] %s: detail page %s unavailable: %v", l.source.Name(), detailURL, err)
			return job, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detail.HTML))
	if err != nil {
		return job, nil
	}
	desc, _, err := extract.Extract(doc.Selection, l.rules.Description, now)
	if err != nil {
		return job, err
	}
	job.Description = desc
	return job, nil
}

func (l *Loop) logf(format string, args ...interface{}) {
	if l.opts.Verbose {
		log.Printf(format, args...)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
