// Package fetch - browser.go renders pages in headless Chrome for boards that
// need JavaScript or a scripted interaction before listing results.
package fetch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// DefaultSettle is how long a rendered page is given to run its scripts.
const DefaultSettle = 2 * time.Second

// optionalStepTimeout bounds how long an optional step may wait for its element.
const optionalStepTimeout = 5 * time.Second

// BrowserFetcher renders pages in one shared headless browser, opening a tab
// per request. Tabs share cookies, so a consent accepted by an interaction on
// the first page carries over to later pages of the same search.
// Requires Chrome/Chromium to be installed on the system.
type BrowserFetcher struct {
	options *Options
	settle  time.Duration

	mu            sync.Mutex
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// NewBrowserFetcher creates a browser fetcher. The browser starts on first use.
func NewBrowserFetcher(opts *Options) *BrowserFetcher {
	return &BrowserFetcher{
		options: opts.withDefaults(),
		settle:  DefaultSettle,
	}
}

// Close shuts the browser down. The fetcher may be reused afterwards.
func (b *BrowserFetcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx, b.browserCancel, b.allocCancel = nil, nil, nil
}

func (b *BrowserFetcher) browser() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx != nil {
		return b.browserCtx, nil
	}

	if b.options.Verbose {
		log.Printf("[BROWSER] Starting headless browser")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(b.options.UserAgent),
		)...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions launches the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	b.browserCtx, b.allocCancel, b.browserCancel = browserCtx, allocCancel, browserCancel
	return browserCtx, nil
}

// Fetch renders req.URL, runs req.Interaction if set and returns the page HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	browserCtx, err := b.browser()
	if err != nil {
		return nil, &Error{URL: req.URL, Kind: KindNetwork, Message: "browser unavailable", Cause: err}
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.options.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	// First document response carries the status of the page itself
	var status atomic.Int64
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	if b.options.Verbose {
		log.Printf("[BROWSER] Navigating to: %s", req.URL)
	}

	actions := []chromedp.Action{network.Enable()}
	if headers := b.headers(req); len(headers) > 0 {
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions,
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body"),
	)
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &Error{URL: req.URL, Kind: KindNetwork, Message: "browser navigation failed", Cause: err}
	}

	code := int(status.Load())
	if statusErr := StatusError(req.URL, code); code != 0 && statusErr != nil {
		return nil, statusErr
	}

	if req.Interaction != nil {
		if err := b.interact(tabCtx, req.Interaction); err != nil {
			return nil, &Error{URL: req.URL, Kind: KindAction, Message: "page interaction failed", Cause: err}
		}
	}

	settle := b.settle
	if req.Interaction != nil && req.Interaction.Settle > 0 {
		settle = time.Duration(req.Interaction.Settle)
	}

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return nil, &Error{URL: req.URL, Kind: KindNetwork, Message: "browser rendering failed", Cause: err}
	}

	if b.options.Verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}

	if code == 0 {
		code = 200
	}
	return &Page{URL: req.URL, HTML: html, ContentType: "text/html", StatusCode: code}, nil
}

func (b *BrowserFetcher) headers(req Request) network.Headers {
	headers := network.Headers{}
	for k, v := range b.options.Headers {
		headers[k] = v
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	return headers
}

func (b *BrowserFetcher) interact(ctx context.Context, in *Interaction) error {
	for i, step := range in.Steps {
		stepCtx, cancel := ctx, context.CancelFunc(func() {})
		if step.Optional {
			stepCtx, cancel = context.WithTimeout(ctx, optionalStepTimeout)
		}
		err := chromedp.Run(stepCtx, stepAction(step))
		cancel()

		if err != nil {
			if step.Optional {
				if b.options.Verbose {
					log.Printf("[BROWSER] Skipping optional step %d (%s %s): %v", i, step.Action, step.Selector, err)
				}
				continue
			}
			return fmt.Errorf("step %d (%s %s): %w", i, step.Action, step.Selector, err)
		}
	}
	return nil
}

func stepAction(s Step) chromedp.Action {
	switch s.Action {
	case ActionClick:
		return chromedp.Click(s.Selector, chromedp.ByQuery, chromedp.NodeVisible)
	case ActionClickPoint:
		return chromedp.MouseClickXY(s.X, s.Y)
	case ActionWaitVisible:
		return chromedp.WaitVisible(s.Selector, chromedp.ByQuery)
	case ActionPressKey:
		return chromedp.KeyEvent(s.Key)
	case ActionSendKeys:
		return chromedp.SendKeys(s.Selector, s.Key, chromedp.ByQuery)
	case ActionSleep:
		return chromedp.Sleep(time.Duration(s.Delay))
	default:
		return chromedp.ActionFunc(func(context.Context) error {
			return fmt.Errorf("unknown action %q", s.Action)
		})
	}
}
