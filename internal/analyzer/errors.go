package analyzer

import "errors"

var (
	// ErrInvalidInput means the request is missing required text.
	ErrInvalidInput = errors.New("resume text is required")

	// ErrParseFailure means neither strict nor heuristic extraction could
	// recover structure from the model response. Nothing is cached in that
	// case; the raw response is captured in telemetry.
	ErrParseFailure = errors.New("could not extract structured data from model response")
)
