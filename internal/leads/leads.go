// Package leads imports prospect CSV files into the agency backend. The
// files are uploaded as-is; parsing, validation, and deduplication happen
// server-side, and the server's import report is surfaced to the caller.
package leads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-surrocare/internal/api"
	"github.com/alnah/go-surrocare/internal/logging"
)

const importPath = "/leads/import"

// ErrNotCSV indicates a file that is not a CSV and cannot be imported.
var ErrNotCSV = fmt.Errorf("not a CSV file")

// apiClient is the request-client surface this service needs.
type apiClient interface {
	Upload(ctx context.Context, path string, files []api.File, fields map[string]string, out any) error
}

// Report is the server's summary of one imported file.
type Report struct {
	FileName string   `json:"file_name"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// Service uploads lead CSV files.
type Service struct {
	client apiClient
	source string
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSource tags every import with an acquisition source, e.g. "walk-in"
// or "agency-fair". The server stores it on each created lead.
func WithSource(source string) Option {
	return func(s *Service) {
		s.source = source
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
		log:    logging.Component("leads"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsCSV reports whether the path names a CSV file.
func IsCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// Import uploads one CSV file and returns the server's import report.
func (s *Service) Import(ctx context.Context, path string) (Report, error) {
	if !IsCSV(path) {
		return Report{}, fmt.Errorf("%w: %s", ErrNotCSV, filepath.Base(path))
	}

	f, err := os.Open(path) // #nosec G304 -- path comes from the operator's own drop directory
	if err != nil {
		return Report{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	fields := map[string]string{}
	if s.source != "" {
		fields["source"] = s.source
	}

	files := []api.File{{Field: "file", Name: filepath.Base(path), Content: f}}

	var report Report
	if err := s.client.Upload(ctx, importPath, files, fields, &report); err != nil {
		return Report{}, err
	}
	if report.FileName == "" {
		report.FileName = filepath.Base(path)
	}

	s.log.Info().
		Str("file", report.FileName).
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Msg("leads imported")
	return report, nil
}

// ImportAll uploads multiple files in parallel. Non-CSV paths are skipped.
// Reports are returned in the same order as the surviving input paths.
// If any upload fails, the entire operation is aborted and the error is
// returned. maxParallel limits the number of concurrent uploads.
func (s *Service) ImportAll(ctx context.Context, paths []string, maxParallel int) ([]Report, error) {
	csvs := make([]string, 0, len(paths))
	for _, path := range paths {
		if !IsCSV(path) {
			s.log.Warn().Str("file", filepath.Base(path)).Msg("skipping non-CSV file")
			continue
		}
		csvs = append(csvs, path)
	}
	if len(csvs) == 0 {
		return nil, nil
	}

	if maxParallel < 1 {
		maxParallel = 1
	}

	reports := make([]Report, len(csvs))
	// Semaphore channel for concurrency control.
	sem := make(chan struct{}, maxParallel)

	g, ctx := errgroup.WithContext(ctx)

	for i, path := range csvs {
		i, path := i, path
		g.Go(func() error {
			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			report, err := s.Import(ctx, path)
			if err != nil {
				return fmt.Errorf("import %s: %w", filepath.Base(path), err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}
