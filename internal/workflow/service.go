package workflow

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-surrocare/internal/logging"
)

const templatesPath = "/workflow-templates"

// apiClient is the request-client surface this service needs.
type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Remote is the server's record of a published template.
type Remote struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Stage     string    `json:"stage"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service publishes templates to the backend.
type Service struct {
	client apiClient
	log    zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// New builds a Service on top of the given request client.
func New(client apiClient, opts ...ServiceOption) *Service {
	s := &Service{
		client: client,
		log:    logging.Component("workflow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push validates a template and publishes it. The server bumps the version
// when a template with the same name already exists.
func (s *Service) Push(ctx context.Context, t Template) (Remote, error) {
	if err := t.Validate(); err != nil {
		return Remote{}, err
	}

	var remote Remote
	if err := s.client.Post(ctx, templatesPath, t, &remote); err != nil {
		return Remote{}, err
	}

	s.log.Info().
		Str("template", remote.Name).
		Int("version", remote.Version).
		Msg("template published")
	return remote, nil
}

// List returns the templates currently published on the backend.
func (s *Service) List(ctx context.Context) ([]Remote, error) {
	var out struct {
		Items []Remote `json:"items"`
	}
	if err := s.client.Get(ctx, templatesPath, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
