// Package surrogates provides the surrogate case endpoints: listing,
// lookup, lifecycle updates, search, and journey stage advancement. Reads
// go through the query cache; writes invalidate it.
package surrogates

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-surrocare/internal/cache"
	"github.com/alnah/go-surrocare/internal/logging"
)

const (
	// cachePrefix namespaces every cached surrogate read. Writes invalidate
	// the whole prefix.
	cachePrefix = "surrogates"

	// cacheTTL bounds how stale a cached page may get.
	cacheTTL = 30 * time.Second
)

// apiClient is the slice of the request client this package uses.
type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Surrogate is one case record.
type Surrogate struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page is one page of list results.
type Page struct {
	Items []Surrogate `json:"items"`
	Total int         `json:"total"`
}

// Draft is the payload for creating a surrogate.
type Draft struct {
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Changes is a partial update. Nil fields are left untouched by the server.
type Changes struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// Service wraps the surrogate endpoints.
type Service struct {
	client apiClient
	cache  *cache.Cache
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the read-through cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// New creates a Service on top of the request client.
func New(client apiClient, opts ...Option) *Service {
	s := &Service{
		client: client,
		log:    logging.Component("surrogates"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of surrogates. Pages start at 1.
func (s *Service) List(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	key := cache.Key(cachePrefix, "list", strconv.Itoa(page))

	if s.cache != nil {
		var cached Page
		if err := s.cache.Get(key, &cached); err == nil {
			return cached, nil
		}
	}

	var out Page
	if err := s.client.Get(ctx, fmt.Sprintf("/surrogates?page=%d", page), &out); err != nil {
		return Page{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetTTL(key, out, cacheTTL)
	}
	return out, nil
}

// Get returns one surrogate by ID.
func (s *Service) Get(ctx context.Context, id int64) (Surrogate, error) {
	if id <= 0 {
		return Surrogate{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	key := cache.Key(cachePrefix, "get", strconv.FormatInt(id, 10))

	if s.cache != nil {
		var cached Surrogate
		if err := s.cache.Get(key, &cached); err == nil {
			return cached, nil
		}
	}

	var out Surrogate
	if err := s.client.Get(ctx, fmt.Sprintf("/surrogates/%d", id), &out); err != nil {
		return Surrogate{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetTTL(key, out, cacheTTL)
	}
	return out, nil
}

// Create registers a new surrogate case.
func (s *Service) Create(ctx context.Context, draft Draft) (Surrogate, error) {
	if strings.TrimSpace(draft.FullName) == "" {
		return Surrogate{}, ErrMissingName
	}

	var out Surrogate
	if err := s.client.Post(ctx, "/surrogates", draft, &out); err != nil {
		return Surrogate{}, err
	}
	s.invalidate()
	return out, nil
}

// Update applies a partial update to a surrogate.
func (s *Service) Update(ctx context.Context, id int64, changes Changes) (Surrogate, error) {
	if id <= 0 {
		return Surrogate{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	var out Surrogate
	if err := s.client.Patch(ctx, fmt.Sprintf("/surrogates/%d", id), changes, &out); err != nil {
		return Surrogate{}, err
	}
	s.invalidate()
	return out, nil
}

// Delete removes a surrogate case.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if err := s.client.Delete(ctx, fmt.Sprintf("/surrogates/%d", id)); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Search runs a full-text search over surrogate records. Results are always
// fetched fresh; the search endpoint is rate-limit sensitive, so callers
// should expect the occasional rate-limit error instead of a silent retry.
func (s *Service) Search(ctx context.Context, query string) ([]Surrogate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var out struct {
		Items []Surrogate `json:"items"`
	}
	path := "/surrogates/search?q=" + url.QueryEscape(query)
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AdvanceStage moves a surrogate to the next journey stage. The server owns
// the stage order and rejects invalid transitions.
func (s *Service) AdvanceStage(ctx context.Context, id int64) (Surrogate, error) {
	if id <= 0 {
		return Surrogate{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	var out Surrogate
	if err := s.client.Post(ctx, fmt.Sprintf("/surrogates/%d/stage", id), nil, &out); err != nil {
		return Surrogate{}, err
	}
	s.invalidate()
	return out, nil
}

// invalidate drops every cached surrogate read after a write.
func (s *Service) invalidate() {
	if s.cache == nil {
		return
	}
	if n := s.cache.Invalidate(cachePrefix + ":"); n > 0 {
		s.log.Debug().Int("entries", n).Msg("cache invalidated")
	}
}
