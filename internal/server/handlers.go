package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/schemas"
	"github.com/jonathan/jobscout/internal/scraping"
	"github.com/jonathan/jobscout/internal/types"
	schemafiles "github.com/jonathan/jobscout/schemas"
)

// maxBodyBytes bounds a POST /search body.
const maxBodyBytes = 64 << 10

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	RequestID  string                  `json:"request_id"`
	Count      int                     `json:"count"`
	Jobs       []types.Job             `json:"jobs"`
	Failures   []*scraping.SourceError `json:"failures,omitempty"`
	Boards     []string                `json:"boards"`
	DurationMS int64                   `json:"duration_ms"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	RequestID string                  `json:"request_id,omitempty"`
	Error     string                  `json:"error"`
	Kind      string                  `json:"kind,omitempty"`
	Retryable bool                    `json:"retryable,omitempty"`
	Failures  []*scraping.SourceError `json:"failures,omitempty"`
}

// BoardResponse describes one registered board.
type BoardResponse struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	BaseURL     string   `json:"base_url,omitempty"`
	Browser     bool     `json:"browser"`
	Filters     []string `json:"filters"`
}

// handleSearchQuery runs a search described by query parameters:
// q (required), location, limit, offset, single_page, boards (comma separated),
// radius, job_type, experience, date_posted.
func (s *Server) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	params, err := paramsFromQuery(r.URL.Query())
	if err != nil {
		s.searchError(w, r, err)
		return
	}
	s.search(w, r, params)
}

// handleSearchBody runs a search described by a JSON body matching the
// search_params schema.
func (s *Server) handleSearchBody(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(body) > maxBodyBytes {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}

	var document interface{}
	if err := json.Unmarshal(body, &document); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := schemas.ValidateDocument(schemafiles.SearchParams, document); err != nil {
		s.searchError(w, r, err)
		return
	}

	var params types.SearchParams
	if err := json.Unmarshal(body, &params); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.search(w, r, params)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, params types.SearchParams) {
	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	res, err := s.coordinator.Search(ctx, params)
	if err != nil {
		s.searchError(w, r, err)
		return
	}

	jobs := res.Jobs
	if jobs == nil {
		jobs = []types.Job{}
	}
	s.jsonResponse(w, http.StatusOK, SearchResponse{
		RequestID:  requestID(r.Context()),
		Count:      len(jobs),
		Jobs:       jobs,
		Failures:   res.Failures,
		Boards:     res.Boards,
		DurationMS: res.Duration.Milliseconds(),
	})
}

func (s *Server) searchError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	resp := ErrorResponse{RequestID: requestID(r.Context()), Error: err.Error()}

	var (
		sourceErr *scraping.SourceError
		allFailed *scraping.AllSourcesFailedError
	)
	switch {
	case errors.As(err, &allFailed):
		resp.Failures = allFailed.Failures
		resp.Retryable = true
		for _, f := range allFailed.Failures {
			resp.Retryable = resp.Retryable && f.Kind.Retryable()
		}
	case errors.As(err, &sourceErr):
		resp.Kind = sourceErr.Kind.String()
		resp.Retryable = sourceErr.Kind.Retryable()
	}

	if status >= http.StatusInternalServerError {
		log.Printf("[SEARCH] request %s failed: %v", resp.RequestID, err)
	}
	s.jsonResponse(w, status, resp)
}

// handleBoards lists the registered boards.
func (s *Server) handleBoards(w http.ResponseWriter, _ *http.Request) {
	sources := s.coordinator.Registry().Sources()
	out := make([]BoardResponse, 0, len(sources))
	for _, src := range sources {
		out = append(out, describeBoard(src))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"boards": out})
}

// handleBoard describes a single board.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	src, ok := s.coordinator.Registry().Lookup(name)
	if !ok {
		err := &ErrBoardNotFound{Name: name}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, describeBoard(src))
}

func describeBoard(src boards.Source) BoardResponse {
	resp := BoardResponse{Name: src.Name(), DisplayName: src.Name(), Browser: src.NeedsBrowser(), Filters: []string{}}
	b, ok := src.(*boards.Board)
	if !ok {
		return resp
	}
	p := b.Profile()
	resp.DisplayName = p.Label()
	resp.BaseURL = p.BaseURL
	if p.Params.Location != "" {
		resp.Filters = append(resp.Filters, "location")
	}
	if p.Params.Radius != "" {
		resp.Filters = append(resp.Filters, "radius")
	}
	if p.Params.JobType != "" && len(p.Codes.JobType) > 0 {
		resp.Filters = append(resp.Filters, "job_type")
	}
	if p.Params.Experience != "" && len(p.Codes.Experience) > 0 {
		resp.Filters = append(resp.Filters, "experience")
	}
	if p.Params.DatePosted != "" && len(p.Codes.DatePosted) > 0 {
		resp.Filters = append(resp.Filters, "date_posted")
	}
	return resp
}

// paramsFromQuery builds SearchParams from URL query values. Range and enum
// checks are left to SearchParams.Validate in the coordinator.
func paramsFromQuery(q url.Values) (types.SearchParams, error) {
	params := types.SearchParams{
		Query:      strings.TrimSpace(q.Get("q")),
		Location:   strings.TrimSpace(q.Get("location")),
		JobType:    types.JobType(q.Get("job_type")),
		Experience: types.ExperienceLevel(q.Get("experience")),
		DatePosted: types.DatePosted(q.Get("date_posted")),
	}
	if params.Query == "" {
		params.Query = strings.TrimSpace(q.Get("query"))
	}
	if params.Query == "" {
		return params, &ErrValidation{Field: "q", Message: "is required"}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"limit", &params.Limit},
		{"offset", &params.Offset},
		{"radius", &params.Radius},
	}
	for _, f := range ints {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return params, &ErrValidation{Field: f.name, Message: "must be an integer"}
		}
		*f.dst = v
	}

	if raw := q.Get("single_page"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return params, &ErrValidation{Field: "single_page", Message: "must be a boolean"}
		}
		params.SinglePage = v
	}

	for _, raw := range q["boards"] {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				params.Boards = append(params.Boards, b)
			}
		}
	}
	return params, nil
}
