// Package boards describes the job boards jobscout can search: where their
// listing and detail pages live, which query parameters they understand and
// which selector rules pull job fields out of their HTML.
package boards

import (
	"fmt"
	"maps"
	"strings"

	"github.com/jonathan/jobscout/internal/extract"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/types"
)

// IDPlaceholder is replaced by the escaped job id in Profile.DetailPath.
const IDPlaceholder = "{id}"

// QueryParams maps search fields to a board's query parameter names.
// An empty name means the board does not support that field.
type QueryParams struct {
	Query      string `json:"query"`
	Location   string `json:"location,omitempty"`
	Offset     string `json:"offset,omitempty"`
	Radius     string `json:"radius,omitempty"`
	JobType    string `json:"job_type,omitempty"`
	Experience string `json:"experience,omitempty"`
	DatePosted string `json:"date_posted,omitempty"`
}

// Codes maps typed filters to the values a board expects. A filter with no
// code is left out of the URL.
type Codes struct {
	JobType    map[types.JobType]string         `json:"job_type,omitempty"`
	Experience map[types.ExperienceLevel]string `json:"experience,omitempty"`
	DatePosted map[types.DatePosted]string      `json:"date_posted,omitempty"`
}

// Rules are the extraction rules for one board. Card splits a listing page
// into job cards; ID, Title, Company, Location and DatePosted are applied to
// each card; Description is applied to the job's detail page.
type Rules struct {
	Card        extract.Rule  `json:"card"`
	ID          extract.Rule  `json:"id"`
	Title       extract.Rule  `json:"title"`
	Company     extract.Rule  `json:"company"`
	Location    extract.Rule  `json:"location"`
	Description extract.Rule  `json:"description"`
	DatePosted  *extract.Rule `json:"date_posted,omitempty"`
}

// Profile is the declarative description of a board.
type Profile struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name,omitempty"`
	BaseURL     string             `json:"base_url"`
	ListingPath string             `json:"listing_path"`
	DetailPath  string             `json:"detail_path"`
	Rules       Rules              `json:"rules"`
	Params      QueryParams        `json:"params"`
	Codes       Codes              `json:"codes,omitempty"`
	Headers     map[string]string  `json:"headers,omitempty"`
	PreSearch   *fetch.Interaction `json:"pre_search,omitempty"`
	// Browser marks boards whose listings only appear after JavaScript runs.
	Browser bool `json:"browser,omitempty"`
	// OffsetStart is the offset parameter value for the first page and
	// OffsetStep how much it grows per page. Boards that count pages use
	// (1, 1); boards that count results use (0, page size).
	OffsetStart int `json:"offset_start,omitempty"`
	OffsetStep  int `json:"offset_step,omitempty"`
}

// Validate checks the profile can build URLs and that every rule compiles.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.Name != strings.ToLower(p.Name) || strings.ContainsAny(p.Name, " ,") {
		return fmt.Errorf("profile %s: name must be lowercase without spaces or commas", p.Name)
	}
	if p.Name == types.AllBoards {
		return fmt.Errorf("profile name %q is reserved", p.Name)
	}
	if _, err := parseBase(p.Name, p.BaseURL); err != nil {
		return err
	}
	if !strings.Contains(p.DetailPath, IDPlaceholder) {
		return &InvalidURLError{Board: p.Name, URL: p.DetailPath, Message: "detail path has no " + IDPlaceholder + " placeholder"}
	}
	if p.Params.Query == "" {
		return fmt.Errorf("profile %s: params.query is required", p.Name)
	}
	if p.OffsetStart < 0 || p.OffsetStep < 0 {
		return fmt.Errorf("profile %s: offset_start and offset_step must not be negative", p.Name)
	}

	rules := []struct {
		field string
		rule  *extract.Rule
	}{
		{"card", &p.Rules.Card},
		{"id", &p.Rules.ID},
		{"title", &p.Rules.Title},
		{"company", &p.Rules.Company},
		{"location", &p.Rules.Location},
		{"description", &p.Rules.Description},
		{"date_posted", p.Rules.DatePosted},
	}
	for _, r := range rules {
		if r.rule == nil {
			continue
		}
		if err := r.rule.Validate(); err != nil {
			return fmt.Errorf("profile %s: rule %s: %w", p.Name, r.field, err)
		}
	}

	if err := p.PreSearch.Validate(); err != nil {
		return fmt.Errorf("profile %s: pre_search: %w", p.Name, err)
	}
	return nil
}

// Label is the human-readable board name.
func (p Profile) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// clone copies the maps and pointers so a Board never shares mutable state
// with the Profile it was built from.
func (p Profile) clone() Profile {
	out := p
	out.Headers = maps.Clone(p.Headers)
	out.Codes = Codes{
		JobType:    maps.Clone(p.Codes.JobType),
		Experience: maps.Clone(p.Codes.Experience),
		DatePosted: maps.Clone(p.Codes.DatePosted),
	}
	out.Rules.Card = p.Rules.Card.Clone()
	out.Rules.ID = p.Rules.ID.Clone()
	out.Rules.Title = p.Rules.Title.Clone()
	out.Rules.Company = p.Rules.Company.Clone()
	out.Rules.Location = p.Rules.Location.Clone()
	out.Rules.Description = p.Rules.Description.Clone()
	if p.Rules.DatePosted != nil {
		r := p.Rules.DatePosted.Clone()
		out.Rules.DatePosted = &r
	}
	if p.PreSearch != nil {
		in := *p.PreSearch
		in.Steps = append([]fetch.Step(nil), p.PreSearch.Steps...)
		out.PreSearch = &in
	}
	return out
}
