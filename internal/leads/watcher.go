package leads

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/alnah/go-surrocare/internal/logging"
)

const (
	// defaultDebounce lets a file settle before it is emitted; copies into
	// the drop directory arrive as bursts of writes.
	defaultDebounce = 500 * time.Millisecond
	fileBufferSize  = 16
)

// Watcher watches a drop directory and emits the path of every CSV file
// that lands in it, debounced so half-copied files are not picked up.
type Watcher struct {
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	files    chan string
	log      zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides how long a file must stay quiet before it is
// emitted.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(log zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.log = log
	}
}

// NewWatcher watches dir for incoming CSV files. The directory is created
// if it does not exist.
func NewWatcher(dir string, opts ...WatcherOption) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create drop directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:      dir,
		debounce: defaultDebounce,
		watcher:  fsw,
		files:    make(chan string, fileBufferSize),
		log:      logging.Component("leads"),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Files returns the channel of settled CSV paths. It is closed by Close.
func (w *Watcher) Files() <-chan string {
	return w.files
}

// Close stops watching and closes the Files channel.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	close(w.files)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// run processes filesystem events from fsnotify.
func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// handleEvent debounces a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	name := filepath.Base(event.Name)

	// Ignore dotfiles and download intermediates.
	if strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, ".tmp") ||
		strings.HasSuffix(name, ".part") {
		return
	}
	if !IsCSV(name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, exists := w.timers[event.Name]; exists {
		timer.Stop()
	}
	path := event.Name
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.emit(path) })
}

// emit hands a settled file to the consumer.
func (w *Watcher) emit(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.timers, path)
	if w.closed {
		return
	}

	select {
	case w.files <- path:
		w.log.Debug().Str("file", filepath.Base(path)).Msg("file settled")
	default:
		// Consumer is behind; drop rather than block the timer goroutine.
		w.log.Warn().Str("file", filepath.Base(path)).Msg("import queue full, dropping file event")
	}
}
