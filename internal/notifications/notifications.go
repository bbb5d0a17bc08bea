// Package notifications manages the in-app notification feed: listing,
// unread counts, and marking notifications as read. Reads go through the
// query cache; writes and realtime pushes invalidate it.
package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-surrocare/internal/cache"
	"github.com/alnah/go-surrocare/internal/logging"
)

const (
	cachePrefix = "notifications"

	// Notification pages go stale fast, so the cache window is short.
	cacheTTL = 15 * time.Second
)

// ErrInvalidID indicates a notification ID that cannot exist.
var ErrInvalidID = fmt.Errorf("invalid notification ID")

// apiClient is the request-client surface this service needs.
type apiClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Notification is one entry in the agency's notification feed.
type Notification struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Type       string    `json:"type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Page is one page of feed results.
type Page struct {
	Items []Notification `json:"items"`
	Total int            `json:"total"`
}

// Service talks to the notification endpoints.
type Service struct {
	client apiClient
	cache  *cache.Cache
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables read-through caching of feed queries.
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
		log:    logging.Component("notifications"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of the notification feed, newest first.
func (s *Service) List(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	key := cache.Key(cachePrefix, "list", strconv.Itoa(page))

	var out Page
	if s.cache != nil {
		if err := s.cache.Get(key, &out); err == nil {
			return out, nil
		}
	}
	if err := s.client.Get(ctx, fmt.Sprintf("/notifications?page=%d", page), &out); err != nil {
		return Page{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetTTL(key, out, cacheTTL); err != nil {
			s.log.Debug().Err(err).Str("key", key).Msg("cache store failed")
		}
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	key := cache.Key(cachePrefix, "unread")

	var out struct {
		Count int `json:"count"`
	}
	if s.cache != nil {
		if err := s.cache.Get(key, &out); err == nil {
			return out.Count, nil
		}
	}
	if err := s.client.Get(ctx, "/notifications/unread-count", &out); err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetTTL(key, out, cacheTTL); err != nil {
			s.log.Debug().Err(err).Str("key", key).Msg("cache store failed")
		}
	}
	return out.Count, nil
}

// MarkRead marks a single notification as read.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if err := s.client.Post(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// MarkAllRead marks every unread notification as read and reports how
// many the server updated.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	var out struct {
		Marked int `json:"marked"`
	}
	if err := s.client.Post(ctx, "/notifications/read-all", nil, &out); err != nil {
		return 0, err
	}
	s.Invalidate()
	return out.Marked, nil
}

// Invalidate drops every cached feed query. Realtime push handlers call
// this when the server reports new activity, so the next read refetches.
func (s *Service) Invalidate() {
	if s.cache == nil {
		return
	}
	if n := s.cache.Invalidate(cachePrefix + ":"); n > 0 {
		s.log.Debug().Int("entries", n).Msg("notification cache invalidated")
	}
}
