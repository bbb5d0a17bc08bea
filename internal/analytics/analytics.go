// Package analytics fetches the agency dashboards: the summary snapshot,
// the journey-stage funnel, and server-side report exports. These endpoints
// are expensive for the backend, so reads are cached and never auto-retried
// by the request client.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-surrocare/internal/cache"
	"github.com/alnah/go-surrocare/internal/logging"
)

const (
	cachePrefix = "analytics"
	cacheTTL    = time.Minute
)

// ErrUnknownFormat indicates an export format the server does not produce.
var ErrUnknownFormat = fmt.Errorf("unknown export format")

// exportFormats lists the report formats the server can produce.
var exportFormats = map[string]bool{
	"csv":  true,
	"pdf":  true,
	"xlsx": true,
}

// apiClient is the request-client surface this service needs.
type apiClient interface {
	Get(ctx context.Context, path string, out any) error
}

// Summary is the agency-wide dashboard snapshot.
type Summary struct {
	ActiveSurrogates   int `json:"active_surrogates"`
	NewLeads           int `json:"new_leads"`
	MatchesInProgress  int `json:"matches_in_progress"`
	TransfersThisMonth int `json:"transfers_this_month"`
}

// FunnelStage is one step of the journey funnel.
type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// ExportJob is a server-side report export. URL is empty until the job
// finishes.
type ExportJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// Overview bundles the two dashboard queries.
type Overview struct {
	Summary Summary
	Funnel  []FunnelStage
}

// Service talks to the analytics endpoints.
type Service struct {
	client apiClient
	cache  *cache.Cache
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables read-through caching of dashboard queries.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

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
		log:    logging.Component("analytics"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary returns the dashboard snapshot.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key := cache.Key(cachePrefix, "summary")

	var out Summary
	if s.cache != nil {
		if err := s.cache.Get(key, &out); err == nil {
			return out, nil
		}
	}
	if err := s.client.Get(ctx, "/analytics/summary", &out); err != nil {
		return Summary{}, err
	}
	s.store(key, out)
	return out, nil
}

// StageFunnel returns surrogate counts per journey stage, in journey order.
func (s *Service) StageFunnel(ctx context.Context) ([]FunnelStage, error) {
	key := cache.Key(cachePrefix, "funnel")

	var out []FunnelStage
	if s.cache != nil {
		if err := s.cache.Get(key, &out); err == nil {
			return out, nil
		}
	}
	if err := s.client.Get(ctx, "/analytics/stage-funnel", &out); err != nil {
		return nil, err
	}
	s.store(key, out)
	return out, nil
}

// Export asks the server to produce a report in the given format. The job
// is queued server-side; poll its URL once Status is "done". Export results
// are never cached.
func (s *Service) Export(ctx context.Context, format string) (ExportJob, error) {
	if !exportFormats[format] {
		return ExportJob{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var job ExportJob
	if err := s.client.Get(ctx, "/analytics/export/"+format, &job); err != nil {
		return ExportJob{}, err
	}

	s.log.Info().Str("format", format).Str("job", job.ID).Str("status", job.Status).Msg("export requested")
	return job, nil
}

// Overview fetches the summary and the funnel concurrently.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var ov Overview

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.Summary(ctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		ov.Summary = sum
		return nil
	})
	g.Go(func() error {
		funnel, err := s.StageFunnel(ctx)
		if err != nil {
			return fmt.Errorf("stage funnel: %w", err)
		}
		ov.Funnel = funnel
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}

func (s *Service) store(key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetTTL(key, value, cacheTTL); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("cache store failed")
	}
}
