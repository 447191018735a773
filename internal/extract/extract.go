package extract

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Separator joins values taken from several matched elements.
const Separator = "\n\n"

// SelectorError reports a rule that cannot be evaluated. It indicates a
// profile that needs correcting, never a transient search failure.
type SelectorError struct {
	Selector string
	Message  string
	Cause    error
}

func (e *SelectorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid selector '%s': %s: %v", e.Selector, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid selector '%s': %s", e.Selector, e.Message)
}

func (e *SelectorError) Unwrap() error {
	return e.Cause
}

var matchers sync.Map // selector string -> groupMatcher

// groupMatcher lets goquery evaluate a comma-separated cascadia group.
type groupMatcher struct {
	group cascadia.SelectorGroup
}

func (g groupMatcher) Match(n *html.Node) bool {
	return g.group.Match(n)
}

// MatchAll returns n when it matches, followed by its matching descendants.
func (g groupMatcher) MatchAll(n *html.Node) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && g.group.Match(n) {
		out = append(out, n)
	}
	return append(out, cascadia.QueryAll(n, g.group)...)
}

func (g groupMatcher) Filter(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if g.group.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

func compile(selector string) (goquery.Matcher, error) {
	if m, ok := matchers.Load(selector); ok {
		return m.(groupMatcher), nil
	}
	if strings.TrimSpace(selector) == "" {
		return nil, &SelectorError{Selector: selector, Message: "empty selector"}
	}
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Message: "failed to parse", Cause: err}
	}
	m := groupMatcher{group: group}
	matchers.Store(selector, m)
	return m, nil
}

// Match returns the elements matching selector within root, including root
// itself, in document order.
func Match(root *goquery.Selection, selector string) (*goquery.Selection, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return root.FilterMatcher(m).AddSelection(root.FindMatcher(m)), nil
}

// ExtractAll returns every element matching the rule's selector, honouring
// the rule's range when one is set. Used to split a listing into cards, so a
// match nested inside another match is dropped.
func ExtractAll(root *goquery.Selection, rule Rule) (*goquery.Selection, error) {
	matches, err := Match(root, rule.Selector)
	if err != nil {
		return nil, err
	}
	matches = outermost(matches)
	if rule.Range == nil {
		return matches, nil
	}
	start, end := rule.Range.bounds(matches.Length())
	return matches.Slice(start, end), nil
}

func outermost(sel *goquery.Selection) *goquery.Selection {
	in := make(map[*html.Node]bool, len(sel.Nodes))
	for _, n := range sel.Nodes {
		in[n] = true
	}
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		for p := s.Nodes[0].Parent; p != nil; p = p.Parent {
			if in[p] {
				return false
			}
		}
		return true
	})
}

// Extract applies rule to root. It returns ok=false when nothing matched or
// every selected element lacked the requested attribute; that is a missing
// field, not an error. err is non-nil only for an unusable selector.
func Extract(root *goquery.Selection, rule Rule, now time.Time) (value string, ok bool, err error) {
	matches, err := Match(root, rule.Selector)
	if err != nil {
		return "", false, err
	}
	n := matches.Length()
	if n == 0 {
		return "", false, nil
	}

	start, end := rule.Range.bounds(n)
	values := make([]string, 0, end-start)
	matches.Slice(start, end).Each(func(_ int, s *goquery.Selection) {
		v, found := read(s, rule)
		if !found {
			return
		}
		values = append(values, Apply(rule.Transform, v, now))
	})
	if len(values) == 0 {
		return "", false, nil
	}
	return strings.Join(values, Separator), true, nil
}

func read(s *goquery.Selection, rule Rule) (string, bool) {
	switch rule.Returns {
	case Attribute:
		return s.Attr(rule.Attr)
	case HTML:
		inner, err := s.Html()
		if err != nil {
			return "", false
		}
		return strings.TrimSpace(inner), true
	default:
		return textOf(s), true
	}
}

// textOf joins the element's non-blank text nodes with newlines.
func textOf(s *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}
