package surrogates

import "errors"

// ErrMissingName indicates a create request without a full name.
var ErrMissingName = errors.New("full name is required")

// ErrInvalidID indicates a non-positive surrogate ID.
var ErrInvalidID = errors.New("invalid surrogate ID")

// ErrEmptyQuery indicates a search with no query text.
var ErrEmptyQuery = errors.New("search query is empty")
