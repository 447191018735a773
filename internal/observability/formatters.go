// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/scraping"
	"github.com/jonathan/jobscout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in summaries
	maxItemsToShow = 5
	// descriptionPreview bounds the description excerpt printed per job
	descriptionPreview = 160
)

// Printer handles formatted output for search results
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSummary outputs a box with job counts per board and any failures.
func (p *Printer) PrintSummary(res *scraping.Result) {
	if res == nil {
		return
	}

	counts := make(map[string]int, len(res.Boards))
	for _, j := range res.Jobs {
		counts[j.Source]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Jobs found: %d", len(res.Jobs)))
	if res.Duration > 0 {
		sb.WriteString(fmt.Sprintf(" in %s", res.Duration.Round(time.Millisecond)))
	}
	sb.WriteString("\n\n")
	for _, b := range res.Boards {
		sb.WriteString(fmt.Sprintf("  • %-12s %d\n", b, counts[b]))
	}

	if len(res.Failures) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, f := range res.Failures {
			retry := ""
			if f.Kind.Retryable() {
				retry = ", retry later"
			}
			sb.WriteString(fmt.Sprintf("  ✗ %s: %s%s\n", f.Source, f.Kind, retry))
		}
	}

	p.printBox("SEARCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobs outputs every job as a short block: title, company, location,
// date, link and a description excerpt.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintJobs(jobs []types.Job) {
	for i, j := range jobs {
		fmt.Fprintf(p.out, "#%d  %s\n", i+1, orDash(j.Title))
		fmt.Fprintf(p.out, "    %s · %s · %s\n", orDash(j.Company), orDash(j.Location), formatDate(j.DatePosted))
		fmt.Fprintf(p.out, "    [%s] %s\n", j.Source, orDash(j.URL))
		if j.Description != "" {
			desc := strings.Join(strings.Fields(j.Description), " ")
			fmt.Fprintf(p.out, "    %s\n", truncate(desc, descriptionPreview))
		}
		fmt.Fprintln(p.out)
	}
}

// PrintTopJobs outputs the first few jobs in a box.
func (p *Printer) PrintTopJobs(jobs []types.Job) {
	if len(jobs) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(jobs), maxItemsToShow)
	for i := 0; i < count; i++ {
		j := jobs[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, orDash(j.Title)))
		sb.WriteString(fmt.Sprintf("    %s, %s (%s)\n", orDash(j.Company), orDash(j.Location), j.Source))
	}
	if len(jobs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more jobs", len(jobs)-maxItemsToShow))
	}

	p.printBox("TOP JOBS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBoards outputs the registered boards and the filters each supports.
func (p *Printer) PrintBoards(sources []boards.Source) {
	var sb strings.Builder
	for i, s := range sources {
		b, ok := s.(*boards.Board)
		if !ok {
			sb.WriteString(fmt.Sprintf("%s\n", s.Name()))
			continue
		}
		profile := b.Profile()
		sb.WriteString(fmt.Sprintf("%-12s %s\n", profile.Name, profile.Label()))
		sb.WriteString(fmt.Sprintf("  %s\n", profile.BaseURL))

		var features []string
		if profile.Params.Location != "" {
			features = append(features, "location")
		}
		if profile.Params.Radius != "" {
			features = append(features, "radius")
		}
		if profile.Params.JobType != "" && len(profile.Codes.JobType) > 0 {
			features = append(features, "job type")
		}
		if profile.Params.Experience != "" && len(profile.Codes.Experience) > 0 {
			features = append(features, "experience")
		}
		if profile.Params.DatePosted != "" && len(profile.Codes.DatePosted) > 0 {
			features = append(features, "date posted")
		}
		if profile.Browser {
			features = append(features, "browser")
		}
		if len(features) > 0 {
			sb.WriteString(fmt.Sprintf("  filters: %s\n", strings.Join(features, ", ")))
		}
		if i < len(sources)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("BOARDS", strings.TrimSuffix(sb.String(), "\n"))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(types.DateLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes.
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}
