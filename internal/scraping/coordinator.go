package scraping

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/types"
	"golang.org/x/sync/errgroup"
)

// Result is the merged outcome of a search.
type Result struct {
	Jobs     []types.Job    `json:"jobs"`
	Failures []*SourceError `json:"failures,omitempty"`
	// Boards lists the boards searched, in registry order.
	Boards   []string      `json:"boards"`
	Duration time.Duration `json:"-"`
}

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	// Browser fetches pages for boards that need JavaScript. When nil those
	// boards use the default fetcher and their pre-search steps are skipped.
	Browser fetch.Fetcher
	Loop    LoopOptions
}

// BoardOutcome is one board's share of a search, reported as soon as that
// board finishes.
type BoardOutcome struct {
	Board string       `json:"board"`
	Jobs  []types.Job  `json:"jobs"`
	Err   *SourceError `json:"error,omitempty"`
}

// Coordinator runs a search across one or more boards.
type Coordinator struct {
	registry *boards.Registry
	fetcher  fetch.Fetcher
	browser  fetch.Fetcher
	loopOpts LoopOptions
}

// NewCoordinator creates a coordinator over registry. A nil registry uses
// boards.Default().
func NewCoordinator(registry *boards.Registry, fetcher fetch.Fetcher, opts *CoordinatorOptions) *Coordinator {
	if registry == nil {
		registry = boards.Default()
	}
	c := &Coordinator{registry: registry, fetcher: fetcher}
	if opts != nil {
		c.browser = opts.Browser
		c.loopOpts = opts.Loop
	}
	return c
}

// Registry returns the boards this coordinator searches.
func (c *Coordinator) Registry() *boards.Registry { return c.registry }

// Search runs params against the requested boards.
//
// A search naming exactly one board returns that board's error unchanged,
// along with any jobs it collected first. A search over several boards (or
// "all") runs them concurrently; a failing board is reported in
// Result.Failures and does not stop the others. The call only fails when
// every board failed and no job was collected.
func (c *Coordinator) Search(ctx context.Context, params types.SearchParams) (*Result, error) {
	return c.SearchEach(ctx, params, nil)
}

// SearchEach is Search with a callback run once per board as it finishes.
// Calls to onBoard are serialized; it may be nil.
func (c *Coordinator) SearchEach(ctx context.Context, params types.SearchParams, onBoard func(BoardOutcome)) (*Result, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search parameters: %w", err)
	}

	sources, err := c.resolve(params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{Boards: make([]string, len(sources))}
	for i, s := range sources {
		result.Boards[i] = s.Name()
	}

	var mu sync.Mutex
	report := func(name string, jobs []types.Job, err error) {
		if onBoard == nil {
			return
		}
		out := BoardOutcome{Board: name, Jobs: jobs}
		if err != nil {
			out.Err = newSourceError(name, err)
		}
		mu.Lock()
		defer mu.Unlock()
		onBoard(out)
	}

	if len(sources) == 1 && !params.AllBoardsRequested() {
		jobs, err := c.loop(sources[0]).Run(ctx, params)
		report(sources[0].Name(), jobs, err)
		result.Jobs = jobs
		result.Duration = time.Since(start)
		c.logf("[SEARCH] %s: %d jobs in %s", sources[0].Name(), len(jobs), result.Duration.Round(time.Millisecond))
		return result, err
	}

	type outcome struct {
		jobs []types.Job
		err  error
	}
	outcomes := make([]outcome, len(sources))

	var g errgroup.Group
	for i, s := range sources {
		g.Go(func() error {
			jobs, err := c.loop(s).Run(ctx, params)
			outcomes[i] = outcome{jobs: jobs, err: err}
			report(s.Name(), jobs, err)
			// Board failures are collected, never returned, so siblings keep running
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		result.Jobs = append(result.Jobs, o.jobs...)
		if o.err != nil {
			result.Failures = append(result.Failures, newSourceError(sources[i].Name(), o.err))
		}
	}
	result.Duration = time.Since(start)
	c.logf("[SEARCH] %d boards: %d jobs, %d failures in %s",
		len(sources), len(result.Jobs), len(result.Failures), result.Duration.Round(time.Millisecond))

	if len(result.Failures) == len(sources) && len(result.Jobs) == 0 {
		return result, &AllSourcesFailedError{Failures: result.Failures}
	}
	return result, nil
}

// resolve returns the sources to search in registry order.
func (c *Coordinator) resolve(params types.SearchParams) ([]boards.Source, error) {
	var sources []boards.Source
	if params.AllBoardsRequested() {
		sources = c.registry.Sources()
	} else {
		if unknown := c.registry.Unknown(params.Boards); len(unknown) > 0 {
			return nil, &UnknownBoardError{Names: unknown, Known: c.registry.Names()}
		}
		wanted := make(map[string]bool, len(params.Boards))
		for _, b := range params.Boards {
			wanted[strings.ToLower(b)] = true
		}
		for _, name := range c.registry.Names() {
			if wanted[name] {
				s, _ := c.registry.Lookup(name)
				sources = append(sources, s)
			}
		}
	}
	if len(sources) == 0 {
		return nil, ErrNoBoards
	}
	return sources, nil
}

func (c *Coordinator) loop(s boards.Source) *Loop {
	f := c.fetcher
	switch {
	case c.browser != nil && (s.NeedsBrowser() || s.PreSearch() != nil):
		// Only the browser fetcher runs pre-search steps.
		f = c.browser
	case s.NeedsBrowser():
		c.logf("[SEARCH] %s: no browser configured, fetching without pre-search steps", s.Name())
	}
	opts := c.loopOpts
	return NewLoop(s, f, &opts)
}

func (c *Coordinator) logf(format string, args ...interface{}) {
	if c.loopOpts.Verbose {
		log.Printf(format, args...)
	}
}
