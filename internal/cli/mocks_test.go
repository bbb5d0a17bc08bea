package cli

import (
	"context"
	"path/filepath"
	"sync"

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

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock ClientFactory
// ---------------------------------------------------------------------------

type mockClientFactory struct {
	NewClientFunc func(cfg config.Config, notices notice.Noticer) (*api.Client, error)

	mu             sync.Mutex
	newClientCalls []config.Config
}

func (m *mockClientFactory) NewClient(cfg config.Config, notices notice.Noticer) (*api.Client, error) {
	m.mu.Lock()
	m.newClientCalls = append(m.newClientCalls, cfg)
	m.mu.Unlock()

	if m.NewClientFunc != nil {
		return m.NewClientFunc(cfg, notices)
	}
	return api.New()
}

func (m *mockClientFactory) NewClientCalls() []config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]config.Config, len(m.newClientCalls))
	copy(result, m.newClientCalls)
	return result
}

// ---------------------------------------------------------------------------
// Mock ServiceFactory + domain services
// ---------------------------------------------------------------------------

type mockServiceFactory struct {
	surrogates    *mockSurrogateService
	leads         *mockLeadImporter
	notifications *mockNotificationService
	transcripts   *mockTranscriptService
	analytics     *mockAnalyticsService
	templates     *mockTemplateService

	mu           sync.Mutex
	leadsSources []string // source labels passed to NewLeads
}

func (m *mockServiceFactory) NewSurrogates(_ *api.Client, _ *cache.Cache) SurrogateService {
	if m.surrogates != nil {
		return m.surrogates
	}
	return &mockSurrogateService{}
}

func (m *mockServiceFactory) NewLeads(_ *api.Client, source string) LeadImporter {
	m.mu.Lock()
	m.leadsSources = append(m.leadsSources, source)
	m.mu.Unlock()

	if m.leads != nil {
		return m.leads
	}
	return &mockLeadImporter{}
}

func (m *mockServiceFactory) NewNotifications(_ *api.Client, _ *cache.Cache) NotificationService {
	if m.notifications != nil {
		return m.notifications
	}
	return &mockNotificationService{}
}

func (m *mockServiceFactory) NewTranscripts(_ *api.Client) TranscriptService {
	if m.transcripts != nil {
		return m.transcripts
	}
	return &mockTranscriptService{}
}

func (m *mockServiceFactory) NewAnalytics(_ *api.Client, _ *cache.Cache) AnalyticsService {
	if m.analytics != nil {
		return m.analytics
	}
	return &mockAnalyticsService{}
}

func (m *mockServiceFactory) NewWorkflow(_ *api.Client) TemplateService {
	if m.templates != nil {
		return m.templates
	}
	return &mockTemplateService{}
}

func (m *mockServiceFactory) LeadsSources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.leadsSources...)
}

type mockSurrogateService struct {
	ListFunc   func(ctx context.Context, page int) (surrogates.Page, error)
	GetFunc    func(ctx context.Context, id int64) (surrogates.Surrogate, error)
	CreateFunc func(ctx context.Context, draft surrogates.Draft) (surrogates.Surrogate, error)
	SearchFunc func(ctx context.Context, query string) ([]surrogates.Surrogate, error)

	mu          sync.Mutex
	listCalls   []int
	getCalls    []int64
	createCalls []surrogates.Draft
	searchCalls []string
}

func (m *mockSurrogateService) List(ctx context.Context, page int) (surrogates.Page, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, page)
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx, page)
	}
	return surrogates.Page{}, nil
}

func (m *mockSurrogateService) Get(ctx context.Context, id int64) (surrogates.Surrogate, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, id)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return surrogates.Surrogate{ID: id}, nil
}

func (m *mockSurrogateService) Create(ctx context.Context, draft surrogates.Draft) (surrogates.Surrogate, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, draft)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, draft)
	}
	return surrogates.Surrogate{ID: 1, FullName: draft.FullName, Stage: "intake", Status: "active"}, nil
}

func (m *mockSurrogateService) Search(ctx context.Context, query string) ([]surrogates.Surrogate, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, query)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *mockSurrogateService) ListCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.listCalls...)
}

func (m *mockSurrogateService) GetCalls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.getCalls...)
}

func (m *mockSurrogateService) CreateCalls() []surrogates.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]surrogates.Draft, len(m.createCalls))
	copy(result, m.createCalls)
	return result
}

func (m *mockSurrogateService) SearchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searchCalls...)
}

type mockLeadImporter struct {
	ImportFunc    func(ctx context.Context, path string) (leads.Report, error)
	ImportAllFunc func(ctx context.Context, paths []string, maxParallel int) ([]leads.Report, error)

	mu             sync.Mutex
	importCalls    []string
	importAllCalls []importAllCall
}

type importAllCall struct {
	Paths       []string
	MaxParallel int
}

func (m *mockLeadImporter) Import(ctx context.Context, path string) (leads.Report, error) {
	m.mu.Lock()
	m.importCalls = append(m.importCalls, path)
	m.mu.Unlock()

	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, path)
	}
	return leads.Report{FileName: filepath.Base(path), Imported: 1}, nil
}

func (m *mockLeadImporter) ImportAll(ctx context.Context, paths []string, maxParallel int) ([]leads.Report, error) {
	m.mu.Lock()
	m.importAllCalls = append(m.importAllCalls, importAllCall{
		Paths:       append([]string(nil), paths...),
		MaxParallel: maxParallel,
	})
	m.mu.Unlock()

	if m.ImportAllFunc != nil {
		return m.ImportAllFunc(ctx, paths, maxParallel)
	}
	reports := make([]leads.Report, 0, len(paths))
	for _, p := range paths {
		reports = append(reports, leads.Report{FileName: filepath.Base(p), Imported: 1})
	}
	return reports, nil
}

func (m *mockLeadImporter) ImportCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.importCalls...)
}

func (m *mockLeadImporter) ImportAllCalls() []importAllCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]importAllCall, len(m.importAllCalls))
	copy(result, m.importAllCalls)
	return result
}

type mockNotificationService struct {
	ListFunc        func(ctx context.Context, page int) (notifications.Page, error)
	UnreadCountFunc func(ctx context.Context) (int, error)
	MarkReadFunc    func(ctx context.Context, id int64) error
	MarkAllReadFunc func(ctx context.Context) (int, error)

	mu              sync.Mutex
	listCalls       []int
	unreadCalls     int
	markReadCalls   []int64
	markAllCalls    int
	invalidateCalls int
}

func (m *mockNotificationService) List(ctx context.Context, page int) (notifications.Page, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, page)
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx, page)
	}
	return notifications.Page{}, nil
}

func (m *mockNotificationService) UnreadCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.unreadCalls++
	m.mu.Unlock()

	if m.UnreadCountFunc != nil {
		return m.UnreadCountFunc(ctx)
	}
	return 0, nil
}

func (m *mockNotificationService) MarkRead(ctx context.Context, id int64) error {
	m.mu.Lock()
	m.markReadCalls = append(m.markReadCalls, id)
	m.mu.Unlock()

	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id)
	}
	return nil
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.markAllCalls++
	m.mu.Unlock()

	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx)
	}
	return 0, nil
}

func (m *mockNotificationService) Invalidate() {
	m.mu.Lock()
	m.invalidateCalls++
	m.mu.Unlock()
}

func (m *mockNotificationService) ListCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.listCalls...)
}

func (m *mockNotificationService) UnreadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unreadCalls
}

func (m *mockNotificationService) MarkReadCalls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.markReadCalls...)
}

func (m *mockNotificationService) MarkAllCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markAllCalls
}

func (m *mockNotificationService) InvalidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidateCalls
}

type mockTranscriptService struct {
	UploadFunc              func(ctx context.Context, surrogateID int64, audioPath string) (transcripts.Transcript, error)
	TranscribeAndAttachFunc func(ctx context.Context, surrogateID int64, audioPath string, t transcripts.Transcriber, opts transcripts.Options) (transcripts.Transcript, error)

	mu            sync.Mutex
	uploadCalls   []uploadCall
	transcribedAt []transcribeAttachCall
}

type uploadCall struct {
	SurrogateID int64
	AudioPath   string
}

type transcribeAttachCall struct {
	SurrogateID int64
	AudioPath   string
	Opts        transcripts.Options
}

func (m *mockTranscriptService) Upload(ctx context.Context, surrogateID int64, audioPath string) (transcripts.Transcript, error) {
	m.mu.Lock()
	m.uploadCalls = append(m.uploadCalls, uploadCall{SurrogateID: surrogateID, AudioPath: audioPath})
	m.mu.Unlock()

	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, surrogateID, audioPath)
	}
	return transcripts.Transcript{ID: 1, SurrogateID: surrogateID, Status: "processing"}, nil
}

func (m *mockTranscriptService) TranscribeAndAttach(ctx context.Context, surrogateID int64, audioPath string, t transcripts.Transcriber, opts transcripts.Options) (transcripts.Transcript, error) {
	m.mu.Lock()
	m.transcribedAt = append(m.transcribedAt, transcribeAttachCall{
		SurrogateID: surrogateID,
		AudioPath:   audioPath,
		Opts:        opts,
	})
	m.mu.Unlock()

	if m.TranscribeAndAttachFunc != nil {
		return m.TranscribeAndAttachFunc(ctx, surrogateID, audioPath, t, opts)
	}
	return transcripts.Transcript{ID: 1, SurrogateID: surrogateID, Status: "attached"}, nil
}

func (m *mockTranscriptService) UploadCalls() []uploadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]uploadCall, len(m.uploadCalls))
	copy(result, m.uploadCalls)
	return result
}

func (m *mockTranscriptService) TranscribeAndAttachCalls() []transcribeAttachCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]transcribeAttachCall, len(m.transcribedAt))
	copy(result, m.transcribedAt)
	return result
}

type mockAnalyticsService struct {
	OverviewFunc func(ctx context.Context) (analytics.Overview, error)
	ExportFunc   func(ctx context.Context, format string) (analytics.ExportJob, error)

	mu            sync.Mutex
	overviewCalls int
	exportCalls   []string
}

func (m *mockAnalyticsService) Overview(ctx context.Context) (analytics.Overview, error) {
	m.mu.Lock()
	m.overviewCalls++
	m.mu.Unlock()

	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx)
	}
	return analytics.Overview{}, nil
}

func (m *mockAnalyticsService) Export(ctx context.Context, format string) (analytics.ExportJob, error) {
	m.mu.Lock()
	m.exportCalls = append(m.exportCalls, format)
	m.mu.Unlock()

	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, format)
	}
	return analytics.ExportJob{ID: "exp_1", Status: "queued"}, nil
}

func (m *mockAnalyticsService) OverviewCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overviewCalls
}

func (m *mockAnalyticsService) ExportCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.exportCalls...)
}

type mockTemplateService struct {
	PushFunc func(ctx context.Context, t workflow.Template) (workflow.Remote, error)
	ListFunc func(ctx context.Context) ([]workflow.Remote, error)

	mu        sync.Mutex
	pushCalls []workflow.Template
	listCalls int
}

func (m *mockTemplateService) Push(ctx context.Context, t workflow.Template) (workflow.Remote, error) {
	m.mu.Lock()
	m.pushCalls = append(m.pushCalls, t)
	m.mu.Unlock()

	if m.PushFunc != nil {
		return m.PushFunc(ctx, t)
	}
	return workflow.Remote{ID: 1, Name: t.Name, Stage: t.Stage, Version: 1}, nil
}

func (m *mockTemplateService) List(ctx context.Context) ([]workflow.Remote, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockTemplateService) PushCalls() []workflow.Template {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]workflow.Template, len(m.pushCalls))
	copy(result, m.pushCalls)
	return result
}

func (m *mockTemplateService) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	NewTranscriberFunc func(apiKey string) transcripts.Transcriber

	mu                  sync.Mutex
	newTranscriberCalls []string // API keys passed
}

func (m *mockTranscriberFactory) NewTranscriber(apiKey string) transcripts.Transcriber {
	m.mu.Lock()
	m.newTranscriberCalls = append(m.newTranscriberCalls, apiKey)
	m.mu.Unlock()

	if m.NewTranscriberFunc != nil {
		return m.NewTranscriberFunc(apiKey)
	}
	return &mockTranscriber{}
}

func (m *mockTranscriberFactory) NewTranscriberCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.newTranscriberCalls...)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string, opts transcripts.Options) (string, error)

	mu              sync.Mutex
	transcribeCalls []string
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string, opts transcripts.Options) (string, error) {
	m.mu.Lock()
	m.transcribeCalls = append(m.transcribeCalls, audioPath)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath, opts)
	}
	return "transcribed text", nil
}

func (m *mockTranscriber) TranscribeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.transcribeCalls...)
}

// ---------------------------------------------------------------------------
// Mock WatcherFactory + LeadWatcher
// ---------------------------------------------------------------------------

type mockWatcherFactory struct {
	NewWatcherFunc func(dir string) (LeadWatcher, error)

	mu              sync.Mutex
	newWatcherCalls []string
	watcher         *mockLeadWatcher
}

func (m *mockWatcherFactory) NewWatcher(dir string) (LeadWatcher, error) {
	m.mu.Lock()
	m.newWatcherCalls = append(m.newWatcherCalls, dir)
	m.mu.Unlock()

	if m.NewWatcherFunc != nil {
		return m.NewWatcherFunc(dir)
	}
	if m.watcher != nil {
		return m.watcher, nil
	}
	return newMockLeadWatcher(), nil
}

func (m *mockWatcherFactory) NewWatcherCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.newWatcherCalls...)
}

type mockLeadWatcher struct {
	files chan string

	mu         sync.Mutex
	closed     bool
	closeCalls int
}

func newMockLeadWatcher() *mockLeadWatcher {
	return &mockLeadWatcher{files: make(chan string, 8)}
}

func (m *mockLeadWatcher) Files() <-chan string {
	return m.files
}

func (m *mockLeadWatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	if !m.closed {
		m.closed = true
		close(m.files)
	}
	return nil
}

// emit queues a settled file path as if the drop directory produced it.
func (m *mockLeadWatcher) emit(path string) {
	m.files <- path
}

func (m *mockLeadWatcher) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// ---------------------------------------------------------------------------
// Mock ChannelFactory + RealtimeChannel
// ---------------------------------------------------------------------------

type mockChannelFactory struct {
	NewChannelFunc func(apiBaseURL string, gate realtime.GateFunc, onNotification func(realtime.Notification), onCount func(int)) RealtimeChannel

	mu              sync.Mutex
	newChannelCalls []string // API base URLs passed
	gate            realtime.GateFunc
	onNotification  func(realtime.Notification)
	onCount         func(int)
	channel         *mockChannel
}

func (m *mockChannelFactory) NewChannel(apiBaseURL string, gate realtime.GateFunc, onNotification func(realtime.Notification), onCount func(int)) RealtimeChannel {
	m.mu.Lock()
	m.newChannelCalls = append(m.newChannelCalls, apiBaseURL)
	m.gate = gate
	m.onNotification = onNotification
	m.onCount = onCount
	m.mu.Unlock()

	if m.NewChannelFunc != nil {
		return m.NewChannelFunc(apiBaseURL, gate, onNotification, onCount)
	}
	if m.channel != nil {
		return m.channel
	}
	return &mockChannel{}
}

func (m *mockChannelFactory) NewChannelCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.newChannelCalls...)
}

// fireNotification invokes the captured notification handler, as the
// channel's read goroutine would.
func (m *mockChannelFactory) fireNotification(n realtime.Notification) {
	m.mu.Lock()
	fn := m.onNotification
	m.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// fireCount invokes the captured count handler.
func (m *mockChannelFactory) fireCount(count int) {
	m.mu.Lock()
	fn := m.onCount
	m.mu.Unlock()
	if fn != nil {
		fn(count)
	}
}

// Gate returns the captured gate predicate.
func (m *mockChannelFactory) Gate() realtime.GateFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gate
}

type mockChannel struct {
	mu           sync.Mutex
	connected    bool
	connectCalls int
	closeCalls   int
}

func (m *mockChannel) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	m.connected = true
}

func (m *mockChannel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	m.connected = false
}

func (m *mockChannel) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockChannel) ConnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

func (m *mockChannel) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// ---------------------------------------------------------------------------
// Compile-time interface verification
// ---------------------------------------------------------------------------

var (
	_ ConfigLoader            = (*mockConfigLoader)(nil)
	_ ClientFactory           = (*mockClientFactory)(nil)
	_ ServiceFactory          = (*mockServiceFactory)(nil)
	_ SurrogateService        = (*mockSurrogateService)(nil)
	_ LeadImporter            = (*mockLeadImporter)(nil)
	_ NotificationService     = (*mockNotificationService)(nil)
	_ TranscriptService       = (*mockTranscriptService)(nil)
	_ AnalyticsService        = (*mockAnalyticsService)(nil)
	_ TemplateService         = (*mockTemplateService)(nil)
	_ TranscriberFactory      = (*mockTranscriberFactory)(nil)
	_ transcripts.Transcriber = (*mockTranscriber)(nil)
	_ WatcherFactory          = (*mockWatcherFactory)(nil)
	_ LeadWatcher             = (*mockLeadWatcher)(nil)
	_ ChannelFactory          = (*mockChannelFactory)(nil)
	_ RealtimeChannel         = (*mockChannel)(nil)
)
