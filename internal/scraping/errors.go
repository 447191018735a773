// Package scraping runs job searches against one or many boards: it pages
// through listings, builds jobs from cards and detail pages, and keeps one
// failing board from spoiling a combined search.
package scraping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/extract"
	"github.com/jonathan/jobscout/internal/fetch"
)

// Kind classifies why a board's search stopped.
type Kind int

const (
	// KindConfiguration is a profile problem: bad selector or malformed URL.
	KindConfiguration Kind = iota
	// KindRateLimited means the board asked us to slow down (HTTP 429).
	KindRateLimited
	// KindBlocked means the board refused automated access (HTTP 403).
	KindBlocked
	// KindNetwork covers transport errors, timeouts and unexpected statuses.
	KindNetwork
	// KindAction is a failed pre-search interaction.
	KindAction
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRateLimited:
		return "rate_limited"
	case KindBlocked:
		return "blocked"
	case KindAction:
		return "action"
	default:
		return "network"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Retryable reports whether calling again later may succeed.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindNetwork
}

// Classify maps an error from the fetch, extract or boards packages to a Kind.
func Classify(err error) Kind {
	var selErr *extract.SelectorError
	if errors.As(err, &selErr) {
		return KindConfiguration
	}
	var urlErr *boards.InvalidURLError
	if errors.As(err, &urlErr) {
		return KindConfiguration
	}
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		switch fetchErr.Kind {
		case fetch.KindRateLimited:
			return KindRateLimited
		case fetch.KindBlocked:
			return KindBlocked
		case fetch.KindAction:
			return KindAction
		case fetch.KindInvalidURL:
			return KindConfiguration
		}
	}
	return KindNetwork
}

// SourceError is the classified failure of one board's search.
type SourceError struct {
	Source string
	Kind   Kind
	Cause  error
}

func newSourceError(source string, err error) *SourceError {
	var se *SourceError
	if errors.As(err, &se) {
		return se
	}
	kind := Classify(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindNetwork
	}
	return &SourceError{Source: source, Kind: kind, Cause: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("board %s failed (%s): %v", e.Source, e.Kind, e.Cause)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// MarshalJSON reports the failure as source, kind and message.
func (e *SourceError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Cause != nil {
		msg = e.Cause.Error()
	}
	return json.Marshal(struct {
		Source    string `json:"source"`
		Kind      Kind   `json:"kind"`
		Retryable bool   `json:"retryable"`
		Error     string `json:"error"`
	}{e.Source, e.Kind, e.Kind.Retryable(), msg})
}

// ErrNoBoards is returned when a search resolves to no registered board.
var ErrNoBoards = errors.New("no boards to search")

// UnknownBoardError reports board names that are not registered.
type UnknownBoardError struct {
	Names []string
	Known []string
}

func (e *UnknownBoardError) Error() string {
	return fmt.Sprintf("unknown board(s) %s (available: %s)",
		strings.Join(e.Names, ", "), strings.Join(e.Known, ", "))
}

// AllSourcesFailedError is returned when every board in a combined search
// failed and no job was collected.
type AllSourcesFailedError struct {
	Failures []*SourceError
}

func (e *AllSourcesFailedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("all %d boards failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes each board's failure to errors.Is and errors.As.
func (e *AllSourcesFailedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
