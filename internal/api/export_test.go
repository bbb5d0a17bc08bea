package api

// Exports for testing. These allow black-box tests to exercise internal
// logic without widening the public API.

var (
	// Error body parsing
	ExtractMessage = extractMessage

	// Rate-limit policy internals
	IsExpensivePath  = expensivePaths.MatchString
	RateLimitMessage = rateLimitMessage
)
