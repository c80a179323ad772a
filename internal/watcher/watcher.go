// Package watcher detects portfolio changes on disk and turns them into
// index invalidations. Rapid bursts of filesystem events (an editor save, a
// git checkout) are debounced into a single notification.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/elemdex/elemdex/internal/store"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new element file was created.
	OpCreate Operation = iota
	// OpModify indicates an existing element file was modified.
	OpModify
	// OpDelete indicates an element file was deleted.
	OpDelete
	// OpRename indicates an element file was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents one portfolio file system event.
type FileEvent struct {
	// Path is the path to the element file.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 200ms
	DebounceWindow time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 256
	EventBufferSize int
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow == 0 {
		o.DebounceWindow = 200 * time.Millisecond
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = 256
	}
	return o
}

// PortfolioWatcher watches the portfolio's element-type directories with
// fsnotify and fans debounced change batches out to the element store.
type PortfolioWatcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *slog.Logger
	opts      Options
	rootPath  string

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// New creates a PortfolioWatcher with the given options.
func New(opts Options, logger *slog.Logger) (*PortfolioWatcher, error) {
	opts = opts.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &PortfolioWatcher{
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		logger:    logger,
		opts:      opts,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start watches the portfolio root and its per-type subdirectories, calling
// notify.NotifyChange after each debounced batch. Blocks until the context is
// cancelled or Stop is called.
func (w *PortfolioWatcher) Start(ctx context.Context, root string, notify *store.PortfolioStore) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve portfolio root: %w", err)
	}
	w.rootPath = absRoot

	if err := w.fsWatcher.Add(absRoot); err != nil {
		return fmt.Errorf("watch portfolio root: %w", err)
	}
	for _, typ := range store.ElementTypes {
		dir := filepath.Join(absRoot, typ.DirName())
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch element directory", "dir", dir, "error", err)
		}
	}

	go w.forwardBatches(ctx, notify)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple times.
func (w *PortfolioWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}

// handleEvent translates one raw fsnotify event into a debounced FileEvent.
// Non-element files are ignored; a newly created type directory is added to
// the watch set.
func (w *PortfolioWatcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsWatcher.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".md") {
		return
	}

	var op Operation
	switch {
	case event.Op.Has(fsnotify.Create):
		op = OpCreate
	case event.Op.Has(fsnotify.Write):
		op = OpModify
	case event.Op.Has(fsnotify.Remove):
		op = OpDelete
	case event.Op.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      event.Name,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// forwardBatches delivers debounced batches to the store as a single
// population-change notification each.
func (w *PortfolioWatcher) forwardBatches(ctx context.Context, notify *store.PortfolioStore) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Events():
			if !ok {
				return
			}
			w.logger.Debug("portfolio changed", "events", len(batch))
			notify.NotifyChange()
		}
	}
}
