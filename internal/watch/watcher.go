package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes of a single file.
type Watcher struct {
	path      string
	opts      Options
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	events    chan []Event
	errs      chan error
	stopCh    chan struct{}
	snapshot  fileSnapshot
	mu        sync.RWMutex
	stopped   bool
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

// New creates a watcher for path. Watching starts immediately; changes made
// after New returns are reported once Start runs.
func New(path string, opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	w := &Watcher{
		path:      abs,
		opts:      opts,
		debouncer: NewDebouncer(opts.Debounce),
		events:    make(chan []Event, opts.BufferSize),
		errs:      make(chan error, 10),
		stopCh:    make(chan struct{}),
		snapshot:  stat(abs),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if addErr := fsw.Add(filepath.Dir(abs)); addErr == nil {
				w.fsw = fsw
			} else {
				_ = fsw.Close()
				err = addErr
			}
		}
		if err != nil {
			slog.Warn("fsnotify_unavailable_polling",
				slog.String("path", abs),
				slog.String("error", err.Error()))
		}
	}
	return w, nil
}

// Mode returns "fsnotify" or "polling".
func (w *Watcher) Mode() string {
	if w.fsw != nil {
		return "fsnotify"
	}
	return "polling"
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start runs the watcher until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	go w.forward(ctx)

	if w.fsw != nil {
		return w.runFsnotify(ctx)
	}
	return w.runPolling(ctx)
}

func (w *Watcher) runFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *Watcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}
	w.debouncer.Add(Event{Path: w.path, Operation: op, Timestamp: time.Now()})
}

func (w *Watcher) runPolling(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll compares the file with the previous snapshot.
func (w *Watcher) poll() {
	prev := w.snapshot
	cur := stat(w.path)
	w.snapshot = cur

	var op Operation
	switch {
	case !prev.exists && cur.exists:
		op = OpCreate
	case prev.exists && !cur.exists:
		op = OpDelete
	case cur.exists && (prev.modTime != cur.modTime || prev.size != cur.size):
		op = OpModify
	default:
		return
	}
	w.debouncer.Add(Event{Path: w.path, Operation: op, Timestamp: time.Now()})
}

func stat(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}

// forward moves debounced batches to the output channel.
func (w *Watcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.emit(batch)
		}
	}
}

func (w *Watcher) emit(batch []Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.events <- batch:
	default:
		slog.Warn("watch_buffer_full", slog.Int("batch_size", len(batch)))
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.errs <- err:
	default:
	}
}

// Events returns the channel of debounced batches. It is closed by Stop.
func (w *Watcher) Events() <-chan []Event {
	return w.events
}

// Errors returns non-fatal watcher errors. It is closed by Stop.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Stop releases the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	close(w.events)
	close(w.errs)
	return err
}

// Watch calls fn with every debounced batch of changes of path until ctx is
// cancelled. Errors returned by fn are logged and watching continues.
// Cancellation is not reported as an error.
func Watch(ctx context.Context, path string, opts Options, fn func(context.Context, []Event) error) error {
	w, err := New(path, opts)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	slog.Info("watch_started", slog.String("path", w.Path()), slog.String("mode", w.Mode()))
	errs := w.Errors()
	for {
		select {
		case batch, ok := <-w.Events():
			if !ok {
				return finish(<-done)
			}
			if err := fn(ctx, batch); err != nil {
				slog.Warn("watch_callback_failed",
					slog.String("path", w.Path()),
					slog.String("error", err.Error()))
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		case err := <-done:
			_ = w.Stop()
			return finish(err)
		}
	}
}

func finish(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
