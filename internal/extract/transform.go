package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Transform names a pure value normalisation applied after extraction.
type Transform int

const (
	// Identity leaves the value unchanged.
	Identity Transform = iota
	// TrailingColonSegment keeps the text after the last ':' ("urn:li:jobPosting:42" -> "42").
	TrailingColonSegment
	// RelativeDate turns phrases such as "il y a 2 semaines" or "3 days ago" into a date.
	RelativeDate
	// ISODate reduces an RFC 3339 timestamp or plain date to a date.
	ISODate
	// CollapseWhitespace folds runs of whitespace, newlines included, to one space.
	CollapseWhitespace
)

var transformNames = map[Transform]string{
	Identity:             "identity",
	TrailingColonSegment: "trailing_colon_segment",
	RelativeDate:         "relative_date",
	ISODate:              "iso_date",
	CollapseWhitespace:   "collapse_whitespace",
}

func (t Transform) String() string {
	if name, ok := transformNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Transform(%d)", int(t))
}

// MarshalJSON encodes the transform by name.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a transform name. An empty name is Identity.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if name == "" {
		*t = Identity
		return nil
	}
	for tr, n := range transformNames {
		if n == name {
			*t = tr
			return nil
		}
	}
	return fmt.Errorf("unknown transform %q", name)
}

// Apply runs transform t over value. now anchors relative dates and is the
// fallback when a date cannot be read.
func Apply(t Transform, value string, now time.Time) string {
	switch t {
	case TrailingColonSegment:
		return trailingColonSegment(value)
	case RelativeDate:
		return relativeDate(value, now).Format(dateLayout)
	case ISODate:
		return isoDate(value, now).Format(dateLayout)
	case CollapseWhitespace:
		return strings.Join(strings.Fields(value), " ")
	default:
		return value
	}
}

const dateLayout = "2006-01-02"

func trailingColonSegment(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.LastIndexByte(value, ':'); i >= 0 {
		return value[i+1:]
	}
	return value
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isoDate(value string, now time.Time) time.Time {
	if d, ok := parseISODate(value); ok {
		return d
	}
	return today(now)
}

func parseISODate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return today(t), true
	}
	if len(value) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, value[:len(dateLayout)]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// relativeDate understands French and English "N units ago" phrasing. Phrases
// without a number count as one unit ("il y a une semaine").
func relativeDate(value string, now time.Time) time.Time {
	text := fold(value)
	base := today(now)

	if d, ok := parseISODate(value); ok {
		return d
	}

	words := newWordSet(text)
	switch {
	case words.any("aujourd", "today", "heure", "heures", "hour", "hours", "hr", "hrs",
		"minute", "minutes", "min", "mins", "instant", "instants") || words.all("just", "now"):
		return base
	case words.all("avant", "hier"):
		return base.AddDate(0, 0, -2)
	case words.any("hier", "yesterday"):
		return base.AddDate(0, 0, -1)
	case words.any("semaine", "semaines", "week", "weeks"):
		return base.AddDate(0, 0, -7*firstNumber(text))
	case words.any("jour", "jours", "day", "days"):
		return base.AddDate(0, 0, -firstNumber(text))
	case words.any("mois", "month", "months"):
		return base.AddDate(0, 0, -30*firstNumber(text))
	case words.any("an", "ans", "annee", "annees", "year", "years"):
		return base.AddDate(-firstNumber(text), 0, 0)
	default:
		return base
	}
}

type wordSet map[string]struct{}

func newWordSet(text string) wordSet {
	set := wordSet{}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = struct{}{}
	}
	return set
}

func (s wordSet) any(words ...string) bool {
	for _, w := range words {
		if _, ok := s[w]; ok {
			return true
		}
	}
	return false
}

func (s wordSet) all(words ...string) bool {
	for _, w := range words {
		if _, ok := s[w]; !ok {
			return false
		}
	}
	return true
}

// fold lowercases and strips diacritics so "Publiée il y a 3 Années" matches "annee".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.ToLower(strings.TrimSpace(result))
}

func firstNumber(text string) int {
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsDigit(r)
	}) {
		if n, err := strconv.Atoi(word); err == nil {
			return n
		}
	}
	return 1
}
