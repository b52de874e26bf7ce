package domain

import "errors"

var (
	// ErrNotFound is returned when an id references a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrFetchFailed marks a transient content service failure.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMissingHandoffData is returned when a level detail has neither a payload nor resolvable ids.
	ErrMissingHandoffData = errors.New("missing handoff data")
	// ErrInvalidCategory is returned for unrecognized category values.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrInvalidInquiry is returned when a contact inquiry fails validation.
	ErrInvalidInquiry = errors.New("invalid inquiry")
)
