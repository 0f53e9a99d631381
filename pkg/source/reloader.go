package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/macropower/rulecat/pkg/rule"
)

const DefaultDebounce = 250 * time.Millisecond

// EventType identifies the outcome of a reload.
type EventType int

const (
	// EventReloaded is sent after a new catalog became current.
	EventReloaded EventType = iota
	// EventFailed is sent when a rebuild failed. The previous catalog
	// stays current.
	EventFailed
)

func (t EventType) String() string {
	switch t {
	case EventReloaded:
		return "reloaded"
	case EventFailed:
		return "failed"
	}

	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event describes a reload.
type Event struct {
	Time    time.Time
	Catalog *rule.Catalog
	Err     error
	Type    EventType
}

// ReloadObserver is notified about every reload attempt. err is nil on
// success.
type ReloadObserver interface {
	ObserveReload(c *rule.Catalog, err error)
}

// Reloader is a [Provider] that rebuilds its catalog when rule set files
// change. A failed rebuild keeps the previous catalog.
type Reloader struct {
	loader    *Loader
	cfg       *Config
	observer  ReloadObserver
	current   atomic.Pointer[rule.Catalog]
	listeners []chan<- Event
	watched   map[string]bool
	debounce  time.Duration
	mu        sync.Mutex
	reloadMu  sync.Mutex
}

// ReloaderOpt configures a [Reloader].
type ReloaderOpt func(*Reloader)

// WithObserver registers an observer for reload attempts.
func WithObserver(o ReloadObserver) ReloaderOpt {
	return func(r *Reloader) {
		r.observer = o
	}
}

// WithDebounce sets how long [Reloader.Watch] waits for file events to
// settle before rebuilding.
func WithDebounce(d time.Duration) ReloaderOpt {
	return func(r *Reloader) {
		r.debounce = d
	}
}

// NewReloader builds the initial catalog. Construction fails if the
// initial build fails.
func NewReloader(ctx context.Context, l *Loader, cfg *Config, opts ...ReloaderOpt) (*Reloader, error) {
	r := &Reloader{
		loader:   l,
		cfg:      cfg,
		debounce: DefaultDebounce,
		watched:  map[string]bool{},
	}
	for _, opt := range opts {
		opt(r)
	}

	c, err := l.Build(ctx, cfg)
	if r.observer != nil {
		r.observer.ObserveReload(c, err)
	}
	if err != nil {
		return nil, err
	}

	r.current.Store(c)

	return r, nil
}

// Current returns the current catalog.
func (r *Reloader) Current() *rule.Catalog {
	return r.current.Load()
}

// Subscribe registers ch to receive reload events. Sends never block; a
// listener that is not ready misses the event.
func (r *Reloader) Subscribe(ch chan<- Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, ch)
}

func (r *Reloader) broadcast(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.listeners {
		select {
		case ch <- evt:
		default:
			r.loader.logger.Debug("dropped reload event", slog.String("type", evt.Type.String()))
		}
	}
}

// Reload rebuilds the catalog. On success the new catalog becomes current
// and is returned.
func (r *Reloader) Reload(ctx context.Context) (*rule.Catalog, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	c, err := r.loader.Build(ctx, r.cfg)
	if r.observer != nil {
		r.observer.ObserveReload(c, err)
	}

	if err != nil {
		r.loader.logger.ErrorContext(ctx, "reload catalog", slog.Any("err", err))
		r.broadcast(Event{Type: EventFailed, Err: err, Catalog: r.Current(), Time: time.Now()})

		return nil, err
	}

	r.current.Store(c)
	r.loader.logger.InfoContext(ctx, "reloaded catalog", slog.Int("rules", c.Len()))
	r.broadcast(Event{Type: EventReloaded, Catalog: c, Time: time.Now()})

	return c, nil
}

// Watch rebuilds the catalog whenever a file matching one of the
// configured sources changes. It blocks until ctx is done.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	defer func() {
		err := watcher.Close()
		if err != nil {
			r.loader.logger.Error("close watcher", slog.Any("err", err))
		}
	}()

	err = r.addWatchers(ctx, watcher)
	if err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return nil

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Has(fsnotify.Chmod) || !r.isWatchedFile(evt.Name) {
				continue
			}

			r.loader.logger.DebugContext(ctx, "rule set changed", slog.String("event", evt.String()))

			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				timer.Reset(r.debounce)
			}

			fire = timer.C

		case <-fire:
			fire = nil

			_, err := r.Reload(ctx)
			if err == nil {
				err = r.addWatchers(ctx, watcher)
				if err != nil {
					r.loader.logger.ErrorContext(ctx, "update watchers", slog.Any("err", err))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			r.loader.logger.ErrorContext(ctx, "watch rule sets", slog.Any("err", err))
		}
	}
}

// addWatchers adds directories that are not watched yet. Directories are
// never removed, so a source that disappears and comes back is noticed.
func (r *Reloader) addWatchers(ctx context.Context, watcher *fsnotify.Watcher) error {
	dirs, err := WatchDirs(r.cfg.Sources)
	if err != nil {
		return err
	}

	var errs []error

	added := 0
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		if r.watched[abs] {
			continue
		}

		err = watcher.Add(abs)
		if err != nil {
			errs = append(errs, fmt.Errorf("add %s to watcher: %w", abs, err))

			continue
		}

		r.watched[abs] = true
		added++
	}

	if added > 0 {
		r.loader.logger.DebugContext(ctx, "added file watchers", slog.Int("dirs", added))
	}

	return errors.Join(errs...)
}

// isWatchedFile reports whether name matches one of the source patterns.
func (r *Reloader) isWatchedFile(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}

	for _, pattern := range r.cfg.Sources {
		expanded, err := expandHome(pattern)
		if err != nil {
			continue
		}

		absPattern := expanded
		if !filepath.IsAbs(absPattern) {
			wd, err := filepath.Abs(".")
			if err != nil {
				continue
			}

			absPattern = filepath.Join(wd, expanded)
		}

		ok, err := doublestar.PathMatch(absPattern, abs)
		if err == nil && ok {
			return true
		}
	}

	return false
}
