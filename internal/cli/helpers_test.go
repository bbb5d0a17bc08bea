package cli

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-surrocare/internal/config"
)

// fixedTime is the clock value injected into test environments.
var fixedTime = time.Date(2025, 6, 15, 14, 30, 52, 0, time.UTC)

// syncBuffer is a concurrency-safe output buffer. Watch commands write
// from handler goroutines, so a plain bytes.Buffer would race.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = nil
}

var _ io.Writer = (*syncBuffer)(nil)

// testMocks bundles every injected dependency so tests can reach them
// after running a command.
type testMocks struct {
	stdout *syncBuffer
	stderr *syncBuffer
	getenv func(string) string

	configLoader       *mockConfigLoader
	clientFactory      *mockClientFactory
	services           *mockServiceFactory
	surrogates         *mockSurrogateService
	leads              *mockLeadImporter
	notifications      *mockNotificationService
	transcripts        *mockTranscriptService
	analytics          *mockAnalyticsService
	templates          *mockTemplateService
	transcriberFactory *mockTranscriberFactory
	watcherFactory     *mockWatcherFactory
	watcher            *mockLeadWatcher
	channelFactory     *mockChannelFactory
	channel            *mockChannel
}

type testEnvOption func(*testMocks)

// withConfig replaces the loaded configuration.
func withConfig(cfg config.Config) testEnvOption {
	return func(m *testMocks) {
		m.configLoader.LoadFunc = func() (config.Config, error) {
			return cfg, nil
		}
	}
}

// withConfigError makes config loading fail.
func withConfigError(err error) testEnvOption {
	return func(m *testMocks) {
		m.configLoader.LoadFunc = func() (config.Config, error) {
			return config.Config{}, err
		}
	}
}

// withGetenv replaces the environment lookup.
func withGetenv(fn func(string) string) testEnvOption {
	return func(m *testMocks) {
		m.getenv = fn
	}
}

func newTestMocks() *testMocks {
	m := &testMocks{
		stdout:             &syncBuffer{},
		stderr:             &syncBuffer{},
		getenv:             defaultTestEnv,
		configLoader:       &mockConfigLoader{},
		clientFactory:      &mockClientFactory{},
		surrogates:         &mockSurrogateService{},
		leads:              &mockLeadImporter{},
		notifications:      &mockNotificationService{},
		transcripts:        &mockTranscriptService{},
		analytics:          &mockAnalyticsService{},
		templates:          &mockTemplateService{},
		transcriberFactory: &mockTranscriberFactory{},
		watcherFactory:     &mockWatcherFactory{},
		channelFactory:     &mockChannelFactory{},
	}
	// Most commands need a session; start logged in and override per test.
	m.configLoader.LoadFunc = func() (config.Config, error) {
		return loggedInConfig(), nil
	}
	m.services = &mockServiceFactory{
		surrogates:    m.surrogates,
		leads:         m.leads,
		notifications: m.notifications,
		transcripts:   m.transcripts,
		analytics:     m.analytics,
		templates:     m.templates,
	}
	m.watcher = newMockLeadWatcher()
	m.watcherFactory.watcher = m.watcher
	m.channel = &mockChannel{}
	m.channelFactory.channel = m.channel
	return m
}

// testEnv builds an Env with all dependencies mocked.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	mocks := newTestMocks()
	for _, opt := range opts {
		opt(mocks)
	}
	env := NewEnv(
		WithStdout(mocks.stdout),
		WithStderr(mocks.stderr),
		WithGetenv(mocks.getenv),
		WithNow(func() time.Time { return fixedTime }),
		WithConfigLoader(mocks.configLoader),
		WithClientFactory(mocks.clientFactory),
		WithServiceFactory(mocks.services),
		WithTranscriberFactory(mocks.transcriberFactory),
		WithWatcherFactory(mocks.watcherFactory),
		WithChannelFactory(mocks.channelFactory),
	)
	return env, mocks
}

// loggedInConfig is the default config loaded in tests: a saved session
// with realtime enabled.
func loggedInConfig() config.Config {
	return config.Config{Session: "sessionid-test", Realtime: true}
}

// staticEnv returns a Getenv func backed by a fixed map.
func staticEnv(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

// defaultTestEnv provides only the OpenAI key.
func defaultTestEnv(key string) string {
	if key == EnvOpenAIAPIKey {
		return "test-openai-key"
	}
	return ""
}

// writeLeadCSV creates a small lead CSV file and returns its path.
func writeLeadCSV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "full_name,email,phone\nJane Doe,jane@example.org,555-0100\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write lead CSV: %v", err)
	}
	return path
}

// writeAudioFile creates a fake audio file and returns its path.
func writeAudioFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake audio data"), 0o600); err != nil {
		t.Fatalf("write audio file: %v", err)
	}
	return path
}

// writeTemplateYAML creates a template file with the given content.
func writeTemplateYAML(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
