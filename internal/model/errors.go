package model

import "errors"

var (
	// ErrMissingContent marks a payload whose content field is absent or
	// empty after shape-specific extraction.
	ErrMissingContent = errors.New("content is required")

	// ErrMalformedPayload marks a body that is not valid JSON or not the
	// top-level shape the route expects.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrUpstream marks a failed or timed-out call to the memory store.
	ErrUpstream = errors.New("upstream failure")
)
