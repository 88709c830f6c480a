package tools

import "errors"

// Catalog errors.
var (
	// ErrUnknownTool is returned when the planner names a tool outside the
	// catalog.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingParameter is returned when a required argument is absent.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrPlaceholderPath is returned when a path argument is a generic
	// placeholder rather than a real project path.
	ErrPlaceholderPath = errors.New("placeholder path rejected")
)
