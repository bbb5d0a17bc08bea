// Package transcripts handles interview transcript intake: uploading audio
// recordings for server-side processing, transcribing them locally with
// OpenAI first when the operator prefers that, and attaching transcript
// text to a surrogate's case file.
package transcripts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-surrocare/internal/api"
	"github.com/alnah/go-surrocare/internal/logging"
)

// supportedAudio lists the file extensions the transcription pipeline accepts.
var supportedAudio = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".m4a":  true,
	".wav":  true,
	".webm": true,
	".ogg":  true,
}

// supportedList returns the accepted extensions, sorted, for error messages.
func supportedList() string {
	exts := make([]string, 0, len(supportedAudio))
	for ext := range supportedAudio {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(exts)
	return strings.Join(exts, ", ")
}

// ValidAudio checks that the file extension is one the transcription
// pipeline accepts. Returns ErrUnsupportedFormat otherwise.
func ValidAudio(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedAudio[ext] {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, filepath.Base(path), supportedList())
	}
	return nil
}

// apiClient is the request-client surface this service needs.
type apiClient interface {
	Post(ctx context.Context, path string, body, out any) error
	Upload(ctx context.Context, path string, files []api.File, fields map[string]string, out any) error
}

// Transcript is the server's record of one interview transcript.
type Transcript struct {
	ID          int64     `json:"id"`
	SurrogateID int64     `json:"surrogate_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// attachRequest is the JSON payload for attaching transcript text.
type attachRequest struct {
	Text string `json:"text"`
}

// Service talks to the transcript endpoints.
type Service struct {
	client apiClient
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// New builds a Service on top of the given request client.
func New(client apiClient, opts ...Option) *Service {
	s := &Service{
		client: client,
		log:    logging.Component("transcripts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload sends an interview recording to the backend, which transcribes it
// server-side. The returned transcript is usually still processing.
func (s *Service) Upload(ctx context.Context, surrogateID int64, audioPath string) (Transcript, error) {
	if surrogateID <= 0 {
		return Transcript{}, fmt.Errorf("%w: %d", ErrInvalidID, surrogateID)
	}
	if err := ValidAudio(audioPath); err != nil {
		return Transcript{}, err
	}

	f, err := os.Open(audioPath) // #nosec G304 -- path comes from the operator's command line
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to open %s: %w", audioPath, err)
	}
	defer func() { _ = f.Close() }()

	files := []api.File{{Field: "file", Name: filepath.Base(audioPath), Content: f}}

	var tr Transcript
	path := fmt.Sprintf("/surrogates/%d/transcripts", surrogateID)
	if err := s.client.Upload(ctx, path, files, nil, &tr); err != nil {
		return Transcript{}, err
	}

	s.log.Info().
		Int64("surrogate_id", surrogateID).
		Str("file", filepath.Base(audioPath)).
		Str("status", tr.Status).
		Msg("recording uploaded")
	return tr, nil
}

// Attach posts transcript text to a surrogate's case file. The server turns
// the plain text into its own document format.
func (s *Service) Attach(ctx context.Context, surrogateID int64, text string) (Transcript, error) {
	if surrogateID <= 0 {
		return Transcript{}, fmt.Errorf("%w: %d", ErrInvalidID, surrogateID)
	}
	if strings.TrimSpace(text) == "" {
		return Transcript{}, ErrEmptyText
	}

	var tr Transcript
	path := fmt.Sprintf("/surrogates/%d/transcripts/text", surrogateID)
	if err := s.client.Post(ctx, path, attachRequest{Text: text}, &tr); err != nil {
		return Transcript{}, err
	}

	s.log.Info().Int64("surrogate_id", surrogateID).Int("chars", len(text)).Msg("transcript attached")
	return tr, nil
}

// TranscribeAndAttach transcribes a recording locally and attaches the
// resulting text. The audio itself never reaches the agency backend.
func (s *Service) TranscribeAndAttach(ctx context.Context, surrogateID int64, audioPath string, t Transcriber, opts Options) (Transcript, error) {
	if surrogateID <= 0 {
		return Transcript{}, fmt.Errorf("%w: %d", ErrInvalidID, surrogateID)
	}

	text, err := t.Transcribe(ctx, audioPath, opts)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to transcribe %s: %w", filepath.Base(audioPath), err)
	}
	return s.Attach(ctx, surrogateID, text)
}
