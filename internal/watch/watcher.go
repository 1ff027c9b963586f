// Package watch reloads the content directory when its collection files
// change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/pkg/logger"
)

// ReloadFunc loads the directory again and swaps it in.
type ReloadFunc func(ctx context.Context) error

// Config configures a Watcher.
type Config struct {
	Dir        string
	BatchDelay time.Duration // Default: 500ms
	Reload     ReloadFunc
}

// Watcher collapses bursts of file events into one reload.
type Watcher struct {
	dir    string
	reload ReloadFunc

	// Batch processing
	pendingMu  sync.Mutex
	pending    map[string]struct{}
	batchTimer *time.Timer
	batchDelay time.Duration

	// Stats
	statsMu    sync.Mutex
	reloads    int
	failures   int
	lastReload time.Time

	// Lifecycle
	ready    chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	log      *logger.Logger
}

// New creates a watcher for cfg.Dir.
func New(cfg Config, log *logger.Logger) (*Watcher, error) {
	if cfg.Reload == nil {
		return nil, fmt.Errorf("watch: no reload function")
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 500 * time.Millisecond
	}
	if log == nil {
		log = logger.Discard()
	}

	absPath, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", absPath)
	}

	return &Watcher{
		dir:        absPath,
		reload:     cfg.Reload,
		pending:    make(map[string]struct{}),
		batchDelay: cfg.BatchDelay,
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
		log:        log.WithComponent("watcher"),
	}, nil
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	// Collection files live at the top level only.
	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	close(w.ready)

	w.log.Info("Watching content for changes", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return nil
		case <-w.done:
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("Watcher error", "error", err)
		}
	}
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !content.IsCollectionFile(event.Name) || event.Op == fsnotify.Chmod {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[filepath.Base(event.Name)] = struct{}{}

	// Reset batch timer
	if w.batchTimer != nil {
		w.batchTimer.Stop()
	}
	w.batchTimer = time.AfterFunc(w.batchDelay, func() { w.processBatch(ctx) })
}

func (w *Watcher) processBatch(ctx context.Context) {
	w.pendingMu.Lock()
	files := make([]string, 0, len(w.pending))
	for name := range w.pending {
		files = append(files, name)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(files) == 0 {
		return
	}
	select {
	case <-w.done:
		return
	default:
	}

	w.log.Info("Content changed, reloading", "files", files)

	rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := w.reload(rctx)

	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	if err != nil {
		w.failures++
		w.log.Error("Content reload failed, keeping current content", "error", err)
		return
	}
	w.reloads++
	w.lastReload = time.Now()
}

// Stop ends Start and cancels any pending reload.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.batchTimer != nil {
			w.batchTimer.Stop()
		}
		w.pendingMu.Unlock()
	})
}

// Stats returns how many reloads succeeded and failed, and when the last
// successful one finished.
func (w *Watcher) Stats() (reloads, failures int, last time.Time) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.reloads, w.failures, w.lastReload
}
