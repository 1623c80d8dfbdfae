package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a request-path operation wraps exactly
// one of these, so callers branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
)

var (
	ErrReportNotFound = fmt.Errorf("report %w", ErrNotFound)
	ErrReviewNotFound = fmt.Errorf("review %w", ErrNotFound)
	ErrImageNotFound  = fmt.Errorf("image %w", ErrNotFound)

	ErrReportNotPending = fmt.Errorf("%w: report is not pending", ErrInvalidState)
	ErrReviewClosed     = fmt.Errorf("%w: review is closed", ErrInvalidState)
	ErrExtensionUsed    = fmt.Errorf("%w: extension already used", ErrInvalidState)
	ErrOpenReviewExists = fmt.Errorf("%w: image already has an open review", ErrConflict)
	ErrInvalidVoteValue = fmt.Errorf("%w: vote value must be keep or remove", ErrValidation)
	ErrInvalidOutcome   = fmt.Errorf("%w: outcome must be keep or remove", ErrValidation)
	ErrInvalidCategory  = fmt.Errorf("%w: unknown report category", ErrValidation)
	ErrReasonRequired   = fmt.Errorf("%w: reason is required", ErrValidation)
	ErrInvalidDays      = fmt.Errorf("%w: days must be at least 1", ErrValidation)
	ErrInvalidRetention = fmt.Errorf("%w: retention must be at least 1 year", ErrValidation)
	ErrCommentTooLong   = fmt.Errorf("%w: comment exceeds 2000 characters", ErrValidation)
	ErrReasonTooLong    = fmt.Errorf("%w: reason exceeds 1000 characters", ErrValidation)
	ErrNotesTooLong     = fmt.Errorf("%w: notes exceed 2000 characters", ErrValidation)
)

// Kind returns the stable classification of err for API clients, or "" for
// unexpected failures.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	}
	return ""
}
