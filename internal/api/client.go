// Package api implements the HTTP client for the SurroCare case-management
// backend. All outbound calls from the service packages go through Client so
// credentials, CSRF protection, error translation, and rate-limit handling
// live in exactly one place.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-surrocare/internal/apierr"
	"github.com/alnah/go-surrocare/internal/logging"
	"github.com/alnah/go-surrocare/internal/notice"
)

const (
	// defaultBaseURL targets the local development backend.
	defaultBaseURL = "http://localhost:8000/api"

	// Rate-limit retry policy for safe reads: at most two transparent
	// retries, exponential delay unless the server hints otherwise.
	maxRateLimitRetries = 2
	rateLimitBaseDelay  = 1 * time.Second
	rateLimitMaxDelay   = 8 * time.Second

	// defaultHTTPTimeout bounds a single round trip, uploads included.
	defaultHTTPTimeout = 60 * time.Second

	// maxResponseSize limits response reads to prevent OOM from malformed responses.
	maxResponseSize = 10 * 1024 * 1024

	headerCSRF      = "X-CSRF-Token"
	headerRequestID = "X-Request-ID"

	cookieCSRF    = "csrftoken"
	cookieSession = "surrocare_session"

	contentTypeJSON = "application/json"
)

// expensivePaths flags endpoints excluded from transparent rate-limit retry.
// Matched as substrings anywhere in the relative path, query string included.
var expensivePaths = regexp.MustCompile(`search|reports|export|analytics`)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc pauses for d or until ctx is done. Injected so retry timing is
// observable in tests.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Compile-time interface compliance check.
var _ httpDoer = (*http.Client)(nil)

// Client is the single entry point for calls to the backend API. It attaches
// the session cookie and CSRF header to every request, translates error
// responses into typed errors, and transparently retries rate-limited safe
// reads. Create one per backend and share it; all methods are safe for
// concurrent use.
type Client struct {
	baseURL   string
	base      *url.URL
	csrfToken string
	session   string
	timeout   time.Duration

	http    httpDoer
	jar     http.CookieJar
	sleep   SleepFunc
	now     func() time.Time
	notices notice.Noticer
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL (scheme, host, and path prefix).
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(raw, "/")
	}
}

// WithCSRFToken sets the CSRF token sent on every request. A csrftoken
// cookie in the jar takes precedence when present.
func WithCSRFToken(token string) Option {
	return func(c *Client) {
		c.csrfToken = token
	}
}

// WithSessionCookie seeds the cookie jar with the staff session cookie.
func WithSessionCookie(value string) Option {
	return func(c *Client) {
		c.session = value
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client (for testing). The client's own
// cookie handling applies; WithSessionCookie has no effect in that case.
func WithHTTPClient(h httpDoer) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithSleep sets the pause function used between rate-limit retries.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithNow sets the clock used to interpret Retry-After dates.
func WithNow(fn func() time.Time) Option {
	return func(c *Client) {
		if fn != nil {
			c.now = fn
		}
	}
}

// WithNoticer sets the sink for user-facing notices.
func WithNoticer(n notice.Noticer) Option {
	return func(c *Client) {
		if n != nil {
			c.notices = n
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a Client. Without options it targets the local development
// backend with a fresh cookie jar and no credentials.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: defaultBaseURL,
		timeout: defaultHTTPTimeout,
		sleep:   sleepContext,
		now:     time.Now,
		notices: notice.Nop{},
		log:     logging.Component("api"),
	}
	for _, opt := range opts {
		opt(c)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	c.base = base

	// Create the HTTP client after options are applied (timeout may be
	// customized, or the whole client replaced).
	if c.http == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.jar = jar
		c.http = &http.Client{Timeout: c.timeout, Jar: jar}
	}

	if c.session != "" {
		c.SetSessionCookie(c.session)
	}

	return c, nil
}

// BaseURL returns the configured API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetSessionCookie stores the staff session cookie in the client's jar.
// No-op when a custom HTTP client manages its own cookies.
func (c *Client) SetSessionCookie(value string) {
	if c.jar == nil {
		return
	}
	c.jar.SetCookies(c.base, []*http.Cookie{{Name: cookieSession, Value: value, Path: "/"}})
}

// Get issues a GET request and decodes the JSON response into out.
// Rate-limited GETs outside the expensive endpoints are retried
// transparently.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, p, out)
}

// Put issues a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, p, out)
}

// Patch issues a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, p, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// File is one file part of a multipart upload.
type File struct {
	// Field is the form field name, e.g. "file".
	Field string
	// Name is the filename sent to the server.
	Name string
	// Content is the file body.
	Content io.Reader
}

// Upload issues a POST request with a multipart form body built from files
// and fields. The request carries the multipart content type with the
// writer's boundary, never the JSON content type.
func (c *Client) Upload(ctx context.Context, path string, files []File, fields map[string]string, out any) error {
	p, err := multipartPayload(files, fields)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, p, out)
}

// payload is a prepared request body. Bytes are buffered so rate-limit
// retries can replay the request.
type payload struct {
	contentType string
	data        []byte
}

// jsonPayload marshals body into a JSON payload. A nil body yields a nil
// payload (no request body, no content type).
func jsonPayload(body any) (*payload, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return &payload{contentType: contentTypeJSON, data: data}, nil
}

// multipartPayload builds a multipart form payload from files and fields.
func multipartPayload(files []File, fields map[string]string) (*payload, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %q: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to copy %q to form: %w", f.Name, err)
		}
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write field %q: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &payload{contentType: writer.FormDataContentType(), data: body.Bytes()}, nil
}

// do executes the request, translating failures into typed errors. 429
// responses to safe reads are retried in place; the loop is bounded by
// maxRateLimitRetries and each pass replays the identical request, request
// ID included.
func (c *Client) do(ctx context.Context, method, path string, body *payload, out any) error {
	requestID := uuid.NewString()

	for retry := 0; ; retry++ {
		res, err := c.send(ctx, method, path, body, requestID)
		if err != nil {
			return err
		}

		if res.status != http.StatusTooManyRequests {
			return c.decode(res, out)
		}

		seconds, hinted := apierr.ParseRetryAfter(res.header.Get("Retry-After"), c.now())

		if method == http.MethodGet && !expensivePaths.MatchString(path) && retry < maxRateLimitRetries {
			delay := apierr.BackoffDelay(retry, rateLimitBaseDelay, rateLimitMaxDelay)
			if hinted {
				delay = time.Duration(seconds) * time.Second
			}
			c.log.Debug().
				Str("path", path).
				Int("retry", retry+1).
				Dur("delay", delay).
				Msg("rate limited, retrying")
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		rlErr := &apierr.RateLimitError{}
		if hinted {
			rlErr.RetryAfter = &seconds
		}
		c.notices.Notify(notice.Warning(rateLimitMessage(rlErr.RetryAfter)))
		c.log.Warn().Str("method", method).Str("path", path).Msg("rate limited")
		return rlErr
	}
}

// rateLimitMessage renders the user-facing rate-limit notice. The wording
// mirrors the web frontend's toasts for the same condition.
func rateLimitMessage(retryAfter *int) string {
	if retryAfter != nil {
		return fmt.Sprintf("Too many requests. Please wait %d seconds.", *retryAfter)
	}
	return "Too many requests. Please try again later."
}

// httpResult is a fully read response.
type httpResult struct {
	status     int
	statusText string
	header     http.Header
	body       []byte
}

// send performs a single HTTP round trip and reads the full response body.
// Transport failures are returned wrapped and are never retried.
func (c *Client) send(ctx context.Context, method, path string, body *payload, requestID string) (_ *httpResult, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	req.Header.Set(headerRequestID, requestID)
	if token := c.csrf(); token != "" {
		req.Header.Set(headerCSRF, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	// Limit response size to prevent OOM from malformed responses.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &httpResult{
		status:     resp.StatusCode,
		statusText: strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "),
		header:     resp.Header,
		body:       data,
	}, nil
}

// csrf returns the CSRF token to send: a csrftoken cookie from the jar when
// present, otherwise the configured token.
func (c *Client) csrf() string {
	if c.jar != nil {
		for _, ck := range c.jar.Cookies(c.base) {
			if ck.Name == cookieCSRF && ck.Value != "" {
				return ck.Value
			}
		}
	}
	return c.csrfToken
}

// decode turns a response into the caller's result: 204 and empty bodies
// leave out untouched, other 2xx bodies are decoded as JSON, everything else
// becomes an *apierr.APIError.
func (c *Client) decode(res *httpResult, out any) error {
	switch {
	case res.status == http.StatusNoContent:
		return nil
	case res.status >= 200 && res.status < 300:
		if out == nil || len(res.body) == 0 {
			return nil
		}
		if err := json.Unmarshal(res.body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	default:
		return &apierr.APIError{
			Status:     res.status,
			StatusText: res.statusText,
			Message:    extractMessage(res.body),
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
