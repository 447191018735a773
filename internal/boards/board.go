package boards

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/types"
)

// Source is a searchable board. The search loop is written once against
// this interface.
type Source interface {
	Name() string
	ListingURL(params types.SearchParams, page int) (string, error)
	DetailURL(id string) (string, error)
	Rules() Rules
	PreSearch() *fetch.Interaction
	Headers() map[string]string
	NeedsBrowser() bool
}

// InvalidURLError reports a profile whose URLs cannot be built. It needs a
// corrected profile; retrying will not help.
type InvalidURLError struct {
	Board   string
	URL     string
	Message string
	Cause   error
}

func (e *InvalidURLError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("board %s: invalid URL %q: %s: %v", e.Board, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("board %s: invalid URL %q: %s", e.Board, e.URL, e.Message)
}

func (e *InvalidURLError) Unwrap() error {
	return e.Cause
}

// Board is an immutable, validated Profile. It is safe for concurrent use.
type Board struct {
	profile Profile
	base    *url.URL
}

var _ Source = (*Board)(nil)

// New validates p and builds a Board from a private copy of it.
func New(p Profile) (*Board, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	base, err := parseBase(p.Name, p.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Board{profile: p.clone(), base: base}, nil
}

// MustNew is New for built-in profiles; it panics on an invalid profile.
func MustNew(p Profile) *Board {
	b, err := New(p)
	if err != nil {
		panic(err)
	}
	return b
}

// Name returns the board identifier used in SearchParams.Boards.
func (b *Board) Name() string { return b.profile.Name }

// Profile returns a copy of the board's profile.
func (b *Board) Profile() Profile { return b.profile.clone() }

// Rules returns the board's extraction rules.
func (b *Board) Rules() Rules { return b.profile.clone().Rules }

// PreSearch returns the interaction to run before reading the first listing page.
func (b *Board) PreSearch() *fetch.Interaction { return b.profile.clone().PreSearch }

// Headers returns extra request headers for the board.
func (b *Board) Headers() map[string]string { return maps.Clone(b.profile.Headers) }

// NeedsBrowser reports whether listings require a rendering fetcher.
func (b *Board) NeedsBrowser() bool { return b.profile.Browser }

// ListingURL builds the listing URL for page (0-based) of a search. Only
// parameters the board names and the caller supplied are emitted.
func (b *Board) ListingURL(params types.SearchParams, page int) (string, error) {
	p := b.profile
	u, err := b.resolve(p.ListingPath)
	if err != nil {
		return "", err
	}

	q := u.Query()
	set := func(name, value string) {
		if name != "" && value != "" {
			q.Set(name, value)
		}
	}

	set(p.Params.Query, strings.TrimSpace(params.Query))
	set(p.Params.Location, strings.TrimSpace(params.Location))
	if page >= 0 {
		set(p.Params.Offset, strconv.Itoa(b.offsetValue(page)))
	}
	if params.Radius > 0 {
		set(p.Params.Radius, strconv.Itoa(params.Radius))
	}
	if params.JobType != types.JobTypeAny {
		set(p.Params.JobType, p.Codes.JobType[params.JobType])
	}
	if params.Experience != types.ExperienceAny {
		set(p.Params.Experience, p.Codes.Experience[params.Experience])
	}
	if params.DatePosted != types.DatePostedAny {
		set(p.Params.DatePosted, p.Codes.DatePosted[params.DatePosted])
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (b *Board) offsetValue(page int) int {
	step := b.profile.OffsetStep
	if step == 0 {
		step = 1
	}
	return b.profile.OffsetStart + page*step
}

// DetailURL builds the URL of a job's detail page.
func (b *Board) DetailURL(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &InvalidURLError{Board: b.profile.Name, URL: b.profile.DetailPath, Message: "empty job id"}
	}
	path := strings.ReplaceAll(b.profile.DetailPath, IDPlaceholder, url.PathEscape(id))
	u, err := b.resolve(path)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (b *Board) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, &InvalidURLError{Board: b.profile.Name, URL: path, Message: "malformed path", Cause: err}
	}
	return b.base.ResolveReference(ref), nil
}

func parseBase(board, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &InvalidURLError{Board: board, URL: raw, Message: "malformed base URL", Cause: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &InvalidURLError{Board: board, URL: raw, Message: "base URL must be absolute"}
	}
	return u, nil
}
