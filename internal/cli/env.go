package cli

import (
	"context"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-surrocare/internal/analytics"
	"github.com/alnah/go-surrocare/internal/api"
	"github.com/alnah/go-surrocare/internal/cache"
	"github.com/alnah/go-surrocare/internal/config"
	"github.com/alnah/go-surrocare/internal/leads"
	"github.com/alnah/go-surrocare/internal/notice"
	"github.com/alnah/go-surrocare/internal/notifications"
	"github.com/alnah/go-surrocare/internal/realtime"
	"github.com/alnah/go-surrocare/internal/surrogates"
	"github.com/alnah/go-surrocare/internal/transcripts"
	"github.com/alnah/go-surrocare/internal/workflow"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment.
	// Stdout carries command output, Stderr carries status and warnings.
	// Both must be safe for concurrent writes: watch commands write from
	// handler goroutines. os.Stdout/os.Stderr are safe at the OS level.
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader       ConfigLoader
	ClientFactory      ClientFactory
	ServiceFactory     ServiceFactory
	TranscriberFactory TranscriberFactory
	WatcherFactory     WatcherFactory
	ChannelFactory     ChannelFactory
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// ClientFactory builds the request client from user configuration.
type ClientFactory interface {
	NewClient(cfg config.Config, notices notice.Noticer) (*api.Client, error)
}

// SurrogateService is the slice of the surrogate directory the CLI drives.
type SurrogateService interface {
	List(ctx context.Context, page int) (surrogates.Page, error)
	Get(ctx context.Context, id int64) (surrogates.Surrogate, error)
	Create(ctx context.Context, draft surrogates.Draft) (surrogates.Surrogate, error)
	Search(ctx context.Context, query string) ([]surrogates.Surrogate, error)
}

// LeadImporter uploads CSV lead files.
type LeadImporter interface {
	Import(ctx context.Context, path string) (leads.Report, error)
	ImportAll(ctx context.Context, paths []string, maxParallel int) ([]leads.Report, error)
}

// NotificationService is the REST side of staff notifications.
type NotificationService interface {
	List(ctx context.Context, page int) (notifications.Page, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int, error)
	Invalidate()
}

// TranscriptService sends interview transcripts to the backend.
type TranscriptService interface {
	Upload(ctx context.Context, surrogateID int64, audioPath string) (transcripts.Transcript, error)
	TranscribeAndAttach(ctx context.Context, surrogateID int64, audioPath string, t transcripts.Transcriber, opts transcripts.Options) (transcripts.Transcript, error)
}

// AnalyticsService reads the reporting endpoints.
type AnalyticsService interface {
	Overview(ctx context.Context) (analytics.Overview, error)
	Export(ctx context.Context, format string) (analytics.ExportJob, error)
}

// TemplateService publishes and lists workflow templates.
type TemplateService interface {
	Push(ctx context.Context, t workflow.Template) (workflow.Remote, error)
	List(ctx context.Context) ([]workflow.Remote, error)
}

// ServiceFactory builds domain services on top of the request client.
type ServiceFactory interface {
	NewSurrogates(client *api.Client, c *cache.Cache) SurrogateService
	NewLeads(client *api.Client, source string) LeadImporter
	NewNotifications(client *api.Client, c *cache.Cache) NotificationService
	NewTranscripts(client *api.Client) TranscriptService
	NewAnalytics(client *api.Client, c *cache.Cache) AnalyticsService
	NewWorkflow(client *api.Client) TemplateService
}

// TranscriberFactory creates transcribers for local audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey string) transcripts.Transcriber
}

// LeadWatcher emits settled CSV paths from a drop directory.
type LeadWatcher interface {
	Files() <-chan string
	Close() error
}

// WatcherFactory creates drop-directory watchers for lead import.
type WatcherFactory interface {
	NewWatcher(dir string) (LeadWatcher, error)
}

// RealtimeChannel is the realtime connection lifecycle the CLI drives.
type RealtimeChannel interface {
	Connect()
	Close()
	IsConnected() bool
}

// ChannelFactory creates realtime notification channels. The handlers run
// on the channel's read goroutine.
type ChannelFactory interface {
	NewChannel(apiBaseURL string, gate realtime.GateFunc, onNotification func(realtime.Notification), onCount func(int)) RealtimeChannel
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithClientFactory sets the request client factory.
func WithClientFactory(f ClientFactory) EnvOption {
	return func(e *Env) {
		e.ClientFactory = f
	}
}

// WithServiceFactory sets the domain service factory.
func WithServiceFactory(f ServiceFactory) EnvOption {
	return func(e *Env) {
		e.ServiceFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// WithWatcherFactory sets the drop-directory watcher factory.
func WithWatcherFactory(f WatcherFactory) EnvOption {
	return func(e *Env) {
		e.WatcherFactory = f
	}
}

// WithChannelFactory sets the realtime channel factory.
func WithChannelFactory(f ChannelFactory) EnvOption {
	return func(e *Env) {
		e.ChannelFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		ConfigLoader:       &defaultConfigLoader{},
		ClientFactory:      &defaultClientFactory{},
		ServiceFactory:     &defaultServiceFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		WatcherFactory:     &defaultWatcherFactory{},
		ChannelFactory:     &defaultChannelFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultClientFactory implements ClientFactory using the api package.
type defaultClientFactory struct{}

func (defaultClientFactory) NewClient(cfg config.Config, notices notice.Noticer) (*api.Client, error) {
	opts := []api.Option{api.WithNoticer(notices)}
	if cfg.APIBaseURL != "" {
		opts = append(opts, api.WithBaseURL(cfg.APIBaseURL))
	}
	if cfg.CSRFToken != "" {
		opts = append(opts, api.WithCSRFToken(cfg.CSRFToken))
	}
	if cfg.Session != "" {
		opts = append(opts, api.WithSessionCookie(cfg.Session))
	}
	return api.New(opts...)
}

// defaultServiceFactory implements ServiceFactory using the domain packages.
type defaultServiceFactory struct{}

func (defaultServiceFactory) NewSurrogates(client *api.Client, c *cache.Cache) SurrogateService {
	return surrogates.New(client, surrogates.WithCache(c))
}

func (defaultServiceFactory) NewLeads(client *api.Client, source string) LeadImporter {
	return leads.New(client, leads.WithSource(source))
}

func (defaultServiceFactory) NewNotifications(client *api.Client, c *cache.Cache) NotificationService {
	return notifications.New(client, notifications.WithCache(c))
}

func (defaultServiceFactory) NewTranscripts(client *api.Client) TranscriptService {
	return transcripts.New(client)
}

func (defaultServiceFactory) NewAnalytics(client *api.Client, c *cache.Cache) AnalyticsService {
	return analytics.New(client, analytics.WithCache(c))
}

func (defaultServiceFactory) NewWorkflow(client *api.Client) TemplateService {
	return workflow.New(client)
}

// defaultTranscriberFactory implements TranscriberFactory using OpenAI.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string) transcripts.Transcriber {
	client := openai.NewClient(apiKey)
	return transcripts.NewWhisperTranscriber(client)
}

// defaultWatcherFactory implements WatcherFactory using the leads package.
type defaultWatcherFactory struct{}

func (defaultWatcherFactory) NewWatcher(dir string) (LeadWatcher, error) {
	return leads.NewWatcher(dir)
}

// defaultChannelFactory implements ChannelFactory using the realtime package.
type defaultChannelFactory struct{}

func (defaultChannelFactory) NewChannel(apiBaseURL string, gate realtime.GateFunc, onNotification func(realtime.Notification), onCount func(int)) RealtimeChannel {
	return realtime.New(apiBaseURL,
		realtime.WithGate(gate),
		realtime.WithNotificationHandler(onNotification),
		realtime.WithCountHandler(onCount),
	)
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ ClientFactory      = (*defaultClientFactory)(nil)
	_ ServiceFactory     = (*defaultServiceFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ WatcherFactory     = (*defaultWatcherFactory)(nil)
	_ ChannelFactory     = (*defaultChannelFactory)(nil)

	_ SurrogateService    = (*surrogates.Service)(nil)
	_ LeadImporter        = (*leads.Service)(nil)
	_ NotificationService = (*notifications.Service)(nil)
	_ TranscriptService   = (*transcripts.Service)(nil)
	_ AnalyticsService    = (*analytics.Service)(nil)
	_ TemplateService     = (*workflow.Service)(nil)
	_ LeadWatcher         = (*leads.Watcher)(nil)
	_ RealtimeChannel     = (*realtime.Channel)(nil)
)
