package transcripts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-surrocare/internal/apierr"
	"github.com/alnah/go-surrocare/internal/lang"
)

// Default retry configuration for transcription requests.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Options configures transcription behavior.
type Options struct {
	// Prompt provides context to improve transcription accuracy.
	// Useful for domain-specific vocabulary, e.g. medical terms that come
	// up in screening interviews.
	Prompt string

	// Language is the ISO 639-1 code of the audio language. Locale variants
	// like "pt-BR" are reduced to their base code before the request.
	// Empty means auto-detect (recommended for most use cases).
	Language string
}

// Transcriber transcribes audio files to text.
type Transcriber interface {
	// Transcribe converts an audio file to text.
	// audioPath must be a file in a supported format: mp3, mp4, mpeg, mpga, m4a, wav, webm, ogg.
	// Returns the transcribed text or an error.
	Transcribe(ctx context.Context, audioPath string, opts Options) (string, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*WhisperTranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// WhisperTranscriber transcribes audio using OpenAI's transcription API.
// It supports automatic retries with exponential backoff for transient errors.
type WhisperTranscriber struct {
	client     audioTranscriber
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// TranscriberOption configures a WhisperTranscriber.
type TranscriberOption func(*WhisperTranscriber)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *WhisperTranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *WhisperTranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// NewWhisperTranscriber creates a new WhisperTranscriber.
// The client is injected to enable testing with mocks.
func NewWhisperTranscriber(client *openai.Client, opts ...TranscriberOption) *WhisperTranscriber {
	t := &WhisperTranscriber{
		client:     client,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe transcribes an audio file using OpenAI's API.
// It automatically retries on transient errors (rate limits, timeouts, server errors).
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   opts.Prompt,
		// The API accepts base codes only; "pt-BR" must be sent as "pt".
		Language: lang.BaseCode(opts.Language),
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		return resp.Text, nil
	}, isRetryableError)
}

// classifyError maps OpenAI API errors to the shared apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Distinguish between temporary rate limit and quota exceeded (billing issue).
			// Quota exceeded should not be retried - it requires user action.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		}
	}

	// Check for context timeout/deadline exceeded.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}

// isRetryableError determines if an error is transient and should be retried.
func isRetryableError(err error) bool {
	// Rate limits are retryable (with backoff).
	if errors.Is(err, apierr.ErrRateLimit) {
		return true
	}

	// Timeouts are retryable.
	if errors.Is(err, apierr.ErrTimeout) {
		return true
	}

	// Server errors (5xx) are retryable.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}
