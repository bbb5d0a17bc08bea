package transcripts

import "errors"

// ErrInvalidID indicates a surrogate ID that cannot exist.
var ErrInvalidID = errors.New("invalid surrogate ID")

// ErrEmptyText indicates transcript text with no content.
var ErrEmptyText = errors.New("transcript text is empty")

// ErrUnsupportedFormat indicates an audio file in a format the
// transcription API does not accept.
var ErrUnsupportedFormat = errors.New("unsupported audio format")
