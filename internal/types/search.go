//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultLimit bounds a search when the caller does not supply a limit.
	DefaultLimit = 50
	// MaxLimit is the largest quota a single search may request.
	MaxLimit = 1000
	// AllBoards selects every registered board.
	AllBoards = "all"
)

// JobType filters postings by contract type.
type JobType string

// Job types understood by the board profiles.
const (
	JobTypeAny        JobType = ""
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeTemporary  JobType = "temporary"
	JobTypeInternship JobType = "internship"
	JobTypeVolunteer  JobType = "volunteer"
)

// ExperienceLevel filters postings by seniority.
type ExperienceLevel string

// Experience levels understood by the board profiles.
const (
	ExperienceAny        ExperienceLevel = ""
	ExperienceInternship ExperienceLevel = "internship"
	ExperienceEntry      ExperienceLevel = "entry"
	ExperienceAssociate  ExperienceLevel = "associate"
	ExperienceMidSenior  ExperienceLevel = "mid_senior"
	ExperienceDirector   ExperienceLevel = "director"
	ExperienceExecutive  ExperienceLevel = "executive"
)

// DatePosted restricts postings to a recency window.
type DatePosted string

// Recency windows understood by the board profiles.
const (
	DatePostedAny       DatePosted = ""
	DatePostedPastDay   DatePosted = "past_day"
	DatePostedPastWeek  DatePosted = "past_week"
	DatePostedPastMonth DatePosted = "past_month"
)

// SearchParams describes one search call. It is treated as immutable once a
// search starts; each board receives its own copy.
type SearchParams struct {
	Query      string          `json:"query" validate:"required"`
	Location   string          `json:"location,omitempty"`
	Limit      int             `json:"limit" validate:"gte=1,lte=1000"`
	Offset     int             `json:"offset" validate:"gte=0"`
	SinglePage bool            `json:"single_page,omitempty"`
	Boards     []string        `json:"boards,omitempty" validate:"dive,required"`
	Radius     int             `json:"radius,omitempty" validate:"gte=0"`
	JobType    JobType         `json:"job_type,omitempty" validate:"omitempty,oneof=full_time part_time contract temporary internship volunteer"`
	Experience ExperienceLevel `json:"experience,omitempty" validate:"omitempty,oneof=internship entry associate mid_senior director executive"`
	DatePosted DatePosted      `json:"date_posted,omitempty" validate:"omitempty,oneof=past_day past_week past_month"`
}

// WithDefaults returns a copy with zero-valued fields filled in.
func (p SearchParams) WithDefaults() SearchParams {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	p.Boards = NormalizeBoards(p.Boards)
	return p
}

// Validate validates the SearchParams using the validator.
func (p *SearchParams) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// AllBoardsRequested reports whether the params target every registered board.
func (p SearchParams) AllBoardsRequested() bool {
	if len(p.Boards) == 0 {
		return true
	}
	for _, b := range p.Boards {
		if b == AllBoards {
			return true
		}
	}
	return false
}

// NormalizeBoards lowercases, trims and de-duplicates board identifiers,
// preserving first-seen order.
func NormalizeBoards(boards []string) []string {
	if len(boards) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(boards))
	out := make([]string, 0, len(boards))
	for _, b := range boards {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}
