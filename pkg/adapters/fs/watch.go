package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/octonote/pkg/core"
)

const debounceDelay = 50 * time.Millisecond

// Watch streams record changes in the notes directory until ctx is done.
// pattern filters note IDs with doublestar syntax; empty means every note.
// The returned channel is closed when watching stops.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, core.NewValidationError("pattern", "Invalid watch pattern: "+pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.notesDir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.notesDir, err)
	}

	known, err := r.knownIDs()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event)
	w := &watchLoop{
		repo:      r,
		pattern:   pattern,
		watcher:   watcher,
		known:     known,
		events:    events,
		debouncer: newDebouncer(debounceDelay),
	}

	r.setWatcherActive(true)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("watcher stopped", "error", err)
	}))

	return events, nil
}

func (r *Repository) knownIDs() (map[string]bool, error) {
	entries, err := os.ReadDir(r.notesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes directory: %w", err)
	}
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		if id, ok := recordID(e); ok {
			known[id] = true
		}
	}
	return known, nil
}

type watchLoop struct {
	repo      *Repository
	pattern   string
	watcher   *fsnotify.Watcher
	known     map[string]bool // touched only by run
	events    chan core.Event
	debouncer *debouncer
}

func (w *watchLoop) run(ctx context.Context) error {
	defer close(w.events)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()
	// Stop the debouncer before the channel closes so no timer sends on it.
	defer w.debouncer.stopAndWait()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.repo.logger.Error("fsnotify error", "error", err)
		}
	}
}

func (w *watchLoop) handle(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, RecordExt) || strings.HasPrefix(name, TempFilePrefix) {
		return
	}
	id := strings.TrimSuffix(name, RecordExt)
	if core.ValidateID(id) != nil {
		return
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// Atomic writes rename onto the record, which shows up as Create.
		// A Rename on the record itself means it moved away.
		eType = core.EventDelete
		delete(w.known, id)
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
		if w.known[id] {
			eType = core.EventModify
		}
		w.known[id] = true
	case event.Has(fsnotify.Write):
		eType = core.EventModify
	default:
		return
	}

	if ok, _ := doublestar.Match(w.pattern, id); !ok {
		return
	}

	w.repo.logger.Debug("record changed", "id", id, "type", eType)
	w.debouncer.add(core.Event{
		Type:      eType,
		ID:        id,
		Timestamp: time.Now().Unix(),
	}, func(e core.Event) {
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// debouncer coalesces bursts of events per note ID.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]core.Event
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]core.Event),
	}
}

func (d *debouncer) add(e core.Event, emit func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.pending[e.ID]; ok && prev.Type == core.EventCreate && e.Type == core.EventModify {
		e.Type = core.EventCreate
	}
	d.pending[e.ID] = e

	if _, scheduled := d.timers[e.ID]; scheduled {
		return
	}
	d.wg.Add(1)
	d.timers[e.ID] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		ev := d.pending[e.ID]
		delete(d.pending, e.ID)
		delete(d.timers, e.ID)
		d.mu.Unlock()
		emit(ev)
	})
}

// stopAndWait drops pending events and waits for in-flight emits.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true
	for id, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
