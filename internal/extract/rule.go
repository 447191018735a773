// Package extract applies declarative selector rules to parsed HTML and
// returns normalized string values.
package extract

import (
	"encoding/json"
	"fmt"
)

// ReturnKind selects what a Rule reads from each matched element.
type ReturnKind int

const (
	// Text reads the element's trimmed text nodes.
	Text ReturnKind = iota
	// Attribute reads the attribute named by Rule.Attr.
	Attribute
	// HTML reads the element's inner markup.
	HTML
)

var returnKindNames = map[ReturnKind]string{
	Text:      "text",
	Attribute: "attribute",
	HTML:      "html",
}

func (k ReturnKind) String() string {
	if name, ok := returnKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ReturnKind(%d)", int(k))
}

// MarshalJSON encodes the kind by name.
func (k ReturnKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *ReturnKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for kind, n := range returnKindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown return kind %q", name)
}

// Range is a half-open [Start, End) window over the matched elements.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// bounds clamps the range to n matches. A nil range selects the first match.
func (r *Range) bounds(n int) (start, end int) {
	if r == nil {
		return 0, min(1, n)
	}
	start = max(r.Start, 0)
	end = min(r.End, n)
	start = min(start, n)
	if start > end {
		start = end
	}
	return start, end
}

// Rule is a single declarative extraction instruction.
type Rule struct {
	Selector  string     `json:"selector"`
	Range     *Range     `json:"range,omitempty"`
	Returns   ReturnKind `json:"returns"`
	Attr      string     `json:"attr,omitempty"`
	Transform Transform  `json:"transform,omitempty"`
}

// TextRule is a first-match Text rule.
func TextRule(selector string) Rule {
	return Rule{Selector: selector, Returns: Text}
}

// AttrRule is a first-match Attribute rule.
func AttrRule(selector, attr string) Rule {
	return Rule{Selector: selector, Returns: Attribute, Attr: attr}
}

// HTMLRule is a first-match HTML rule.
func HTMLRule(selector string) Rule {
	return Rule{Selector: selector, Returns: HTML}
}

// WithRange returns a copy of r selecting matches [start, end).
func (r Rule) WithRange(start, end int) Rule {
	r.Range = &Range{Start: start, End: end}
	return r
}

// Clone returns a copy of r that shares no memory with it.
func (r Rule) Clone() Rule {
	if r.Range != nil {
		rg := *r.Range
		r.Range = &rg
	}
	return r
}

// WithTransform returns a copy of r applying t to each value.
func (r Rule) WithTransform(t Transform) Rule {
	r.Transform = t
	return r
}

// Validate compiles the selector and checks the rule is self-consistent.
func (r Rule) Validate() error {
	if _, err := compile(r.Selector); err != nil {
		return err
	}
	if r.Returns == Attribute && r.Attr == "" {
		return &SelectorError{Selector: r.Selector, Message: "attribute rule has no attribute name"}
	}
	if r.Range != nil && (r.Range.Start < 0 || r.Range.End < r.Range.Start) {
		return &SelectorError{
			Selector: r.Selector,
			Message:  fmt.Sprintf("invalid range [%d, %d)", r.Range.Start, r.Range.End),
		}
	}
	if _, ok := transformNames[r.Transform]; !ok {
		return &SelectorError{Selector: r.Selector, Message: fmt.Sprintf("unknown transform %d", int(r.Transform))}
	}
	return nil
}
