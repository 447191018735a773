// Package types provides type definitions for structured data used throughout the jobscout system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date layout used for Job.DatePosted on the wire.
const DateLayout = "2006-01-02"

// Job represents a single posting built from a listing card and its detail page.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	DatePosted  time.Time `json:"-"`
	Source      string    `json:"source"`
}

type jobJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
	DatePosted  string `json:"date_posted"`
	Source      string `json:"source"`
}

// MarshalJSON writes DatePosted as a calendar date.
func (j Job) MarshalJSON() ([]byte, error) {
	out := jobJSON{
		ID:          j.ID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Description: j.Description,
		URL:         j.URL,
		Source:      j.Source,
	}
	if !j.DatePosted.IsZero() {
		out.DatePosted = j.DatePosted.Format(DateLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a Job written by MarshalJSON.
func (j *Job) UnmarshalJSON(data []byte) error {
	var in jobJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*j = Job{
		ID:          in.ID,
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Description: in.Description,
		URL:         in.URL,
		Source:      in.Source,
	}
	if in.DatePosted != "" {
		d, err := time.Parse(DateLayout, in.DatePosted)
		if err != nil {
			return fmt.Errorf("invalid date_posted %q: %w", in.DatePosted, err)
		}
		j.DatePosted = d
	}
	return nil
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
