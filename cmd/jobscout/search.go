package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"

	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/observability"
	"github.com/jonathan/jobscout/internal/scraping"
	"github.com/jonathan/jobscout/internal/types"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search one or more job boards",
	Long: `Runs a search against the selected boards and prints the merged postings.

Boards run concurrently; a board that fails is reported in the summary and does
not stop the others. When exactly one board is named, its error is returned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var (
	searchQuery      string
	searchLocation   string
	searchLimit      int
	searchOffset     int
	searchSinglePage bool
	searchBoards     []string
	searchRadius     int
	searchJobType    string
	searchExperience string
	searchDatePosted string
	searchJSON       bool
	searchTop        bool
)

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search keywords")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "Location filter")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum jobs per board (default from config, 50)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "First result page to request")
	searchCmd.Flags().BoolVar(&searchSinglePage, "single-page", false, "Fetch only one result page per board")
	searchCmd.Flags().StringSliceVarP(&searchBoards, "boards", "b", nil, "Boards to search, comma separated, or \"all\"")
	searchCmd.Flags().IntVar(&searchRadius, "radius", 0, "Search radius in kilometers")
	searchCmd.Flags().StringVar(&searchJobType, "job-type", "", "full_time, part_time, contract, temporary, internship or volunteer")
	searchCmd.Flags().StringVar(&searchExperience, "experience", "", "internship, entry, associate, mid_senior, director or executive")
	searchCmd.Flags().StringVar(&searchDatePosted, "date-posted", "", "past_day, past_week or past_month")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the result as JSON")
	searchCmd.Flags().BoolVar(&searchTop, "top", false, "Print only the first few jobs")

	rootCmd.AddCommand(searchCmd)
}

// searchOutput is the --json document.
type searchOutput struct {
	Count      int                     `json:"count"`
	Jobs       []types.Job             `json:"jobs"`
	Failures   []*scraping.SourceError `json:"failures,omitempty"`
	Boards     []string                `json:"boards"`
	DurationMS int64                   `json:"duration_ms"`
	Error      string                  `json:"error,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	query := searchQuery
	if len(args) == 1 && query == "" {
		query = args[0]
	}
	params := searchParams(cmd, cfg, query)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, searchErr := st.coordinator.Search(ctx, params)

	if searchJSON {
		out := searchOutput{Jobs: []types.Job{}}
		if res != nil {
			if res.Jobs != nil {
				out.Jobs = res.Jobs
			}
			out.Count = len(res.Jobs)
			out.Failures = res.Failures
			out.Boards = res.Boards
			out.DurationMS = res.Duration.Milliseconds()
		}
		if searchErr != nil {
			out.Error = searchErr.Error()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return searchErr
	}

	if res != nil {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintSummary(res)
		if searchTop {
			printer.PrintTopJobs(res.Jobs)
		} else {
			printer.PrintJobs(res.Jobs)
		}
	}
	return searchErr
}

// searchParams builds the request from flags, falling back to the config's
// boards and limit.
func searchParams(cmd *cobra.Command, cfg config.Config, query string) types.SearchParams {
	params := types.SearchParams{
		Query:      strings.TrimSpace(query),
		Location:   searchLocation,
		Limit:      cfg.Limit,
		Offset:     searchOffset,
		SinglePage: searchSinglePage,
		Boards:     cfg.Boards,
		Radius:     searchRadius,
		JobType:    types.JobType(searchJobType),
		Experience: types.ExperienceLevel(searchExperience),
		DatePosted: types.DatePosted(searchDatePosted),
	}
	if cmd.Flags().Changed("limit") {
		params.Limit = searchLimit
	}
	if cmd.Flags().Changed("boards") {
		params.Boards = searchBoards
	}
	return params
}
