package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/setup errors that don't belong to domain packages.

var (
	// ErrNotLoggedIn indicates no session cookie is configured.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrRealtimeOff indicates realtime notifications are disabled in config.
	ErrRealtimeOff = errors.New("realtime notifications disabled")

	// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidID indicates a positional ID argument is not a positive number.
	ErrInvalidID = errors.New("invalid id")
)
