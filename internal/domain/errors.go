package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedSlug means the URL segment could not be normalized.
	ErrMalformedSlug = errors.New("malformed slug")
	// ErrTenantNotFound means no directory entry matched the slug.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrConnectionUnavailable means the tenant's endpoint (or the directory) could not be reached.
	ErrConnectionUnavailable = errors.New("connection unavailable")
	// ErrFieldFetchFailed marks a failed aggregator fetch. It never leaves the aggregator.
	ErrFieldFetchFailed = errors.New("field fetch failed")
)

// MalformedSlugError carries the offending slug.
type MalformedSlugError struct {
	Slug   string
	Reason string
}

func (e *MalformedSlugError) Error() string {
	return fmt.Sprintf("malformed slug %q: %s", e.Slug, e.Reason)
}

func (e *MalformedSlugError) Is(target error) bool { return target == ErrMalformedSlug }

// TenantNotFoundError lists every name that was tried. Matches is the number
// of partial matches found; more than one is reported as ambiguous.
type TenantNotFoundError struct {
	Candidates []string
	Matches    int
}

func (e *TenantNotFoundError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("tenant not found: %d ambiguous partial matches for [%s]", e.Matches, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("tenant not found: tried [%s]", strings.Join(e.Candidates, ", "))
}

func (e *TenantNotFoundError) Is(target error) bool { return target == ErrTenantNotFound }

// User-facing messages for terminal resolution errors.
const (
	MessageInvalidLink  = "Invalid menu link."
	MessageNotFound     = "Restaurant not found."
	MessageUnavailable  = "Menu temporarily unavailable. Please try again shortly."
	MessageUnknownError = "Something went wrong while loading the menu."
)

// UserMessage maps an error from the menu pipeline to text that is safe to
// show to end users. Raw store errors are never returned.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMalformedSlug):
		return MessageInvalidLink
	case errors.Is(err, ErrTenantNotFound):
		return MessageNotFound
	case errors.Is(err, ErrConnectionUnavailable):
		return MessageUnavailable
	default:
		return MessageUnknownError
	}
}
