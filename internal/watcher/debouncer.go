package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer batches bursts of file events so one editor save (or a bulk
// sync) costs a single index invalidation. Events on the same path inside
// the window merge by what the file looks like at the end of the burst:
//   - CREATE then MODIFY is still a CREATE
//   - CREATE then DELETE cancels out entirely
//   - MODIFY then DELETE is a DELETE
//   - DELETE then CREATE is a MODIFY (the file was replaced)
type Debouncer struct {
	window time.Duration
	out    chan []FileEvent

	mu       sync.Mutex
	inflight map[string]*trackedEvent
	timer    *time.Timer
	stopped  bool
}

// trackedEvent remembers the first operation seen for a path, which
// decides how later operations merge into it.
type trackedEvent struct {
	event   FileEvent
	firstOp Operation
}

// NewDebouncer batches events into windows of the given duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:   window,
		inflight: make(map[string]*trackedEvent),
		out:      make(chan []FileEvent, 10),
	}
}

// Add feeds one raw event into the current window. Events arriving after
// Stop are dropped.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	tracked, seen := d.inflight[event.Path]
	if !seen {
		d.inflight[event.Path] = &trackedEvent{event: event, firstOp: event.Operation}
	} else if merged := tracked.merge(event); merged == nil {
		delete(d.inflight, event.Path)
	} else {
		tracked.event = *merged
	}

	// Every event pushes the flush out; the batch closes only once the
	// burst goes quiet for a full window.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// merge folds next into the tracked event, returning nil when the pair
// cancels out.
func (t *trackedEvent) merge(next FileEvent) *FileEvent {
	switch {
	case t.firstOp == OpCreate && next.Operation == OpModify:
		return &t.event
	case t.firstOp == OpCreate && next.Operation == OpDelete:
		return nil
	case t.firstOp == OpDelete && next.Operation == OpCreate:
		replaced := next
		replaced.Operation = OpModify
		return &replaced
	default:
		return &next
	}
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.inflight) == 0 {
		return
	}

	batch := make([]FileEvent, 0, len(d.inflight))
	for _, t := range d.inflight {
		batch = append(batch, t.event)
	}
	d.inflight = make(map[string]*trackedEvent)

	select {
	case d.out <- batch:
	default:
		slog.Warn("debouncer output full, dropping batch",
			slog.Int("batch_size", len(batch)))
	}
}

// Events delivers one slice per settled burst.
func (d *Debouncer) Events() <-chan []FileEvent {
	return d.out
}

// Stop closes the output channel. Safe to call more than once; later
// Adds are no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.out)
}
