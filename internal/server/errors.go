package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/jobscout/internal/schemas"
	"github.com/jonathan/jobscout/internal/scraping"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBoardNotFound indicates an unknown board in a path
type ErrBoardNotFound struct {
	Name string
}

func (e *ErrBoardNotFound) Error() string {
	return fmt.Sprintf("board not found: %s", e.Name)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notFound      *ErrBoardNotFound
		fieldErrs     validator.ValidationErrors
		schemaErr     *schemas.ValidationError
		unknownBoard  *scraping.UnknownBoardError
		allFailed     *scraping.AllSourcesFailedError
		sourceErr     *scraping.SourceError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &fieldErrs),
		errors.As(err, &schemaErr), errors.As(err, &unknownBoard):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &allFailed):
		if len(allFailed.Failures) > 0 && allRateLimited(allFailed.Failures) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case errors.As(err, &sourceErr):
		return sourceStatus(sourceErr.Kind)
	default:
		return http.StatusInternalServerError
	}
}

func sourceStatus(kind scraping.Kind) int {
	switch kind {
	case scraping.KindRateLimited:
		return http.StatusServiceUnavailable
	case scraping.KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func allRateLimited(failures []*scraping.SourceError) bool {
	for _, f := range failures {
		if f.Kind != scraping.KindRateLimited {
			return false
		}
	}
	return true
}
