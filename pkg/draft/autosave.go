package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
)

const (
	defaultInterval = 30 * time.Second
	defaultDebounce = 5 * time.Second
)

// Snapshot returns the form's current values. It is called from the
// autosaver's goroutine, so implementations must be safe to call
// concurrently with data entry.
type Snapshot func() forms.Values

// AutoSaver periodically snapshots a form into the draft store: on a fixed
// interval while the form is dirty, and a few seconds after the last
// keystroke so short sessions are not lost to the interval.
type AutoSaver struct {
	store    *Store
	def      forms.Definition
	pageURL  string
	snapshot Snapshot
	interval time.Duration
	debounce time.Duration
	logger   *slog.Logger

	touches  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// AutoSaveOption configures an AutoSaver.
type AutoSaveOption func(*AutoSaver)

// WithInterval overrides the periodic save cadence.
func WithInterval(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithDebounce overrides the post-keystroke settle delay.
func WithDebounce(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) {
		if d > 0 {
			a.debounce = d
		}
	}
}

// WithAutoSaveLogger overrides the autosaver's logger.
func WithAutoSaveLogger(logger *slog.Logger) AutoSaveOption {
	return func(a *AutoSaver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAutoSaver starts the save loop and returns the running saver. Call
// Touch on every field change and Stop when the form unmounts.
func NewAutoSaver(ctx context.Context, store *Store, def forms.Definition, pageURL string, snapshot Snapshot, opts ...AutoSaveOption) *AutoSaver {
	a := &AutoSaver{
		store:    store,
		def:      def,
		pageURL:  pageURL,
		snapshot: snapshot,
		interval: defaultInterval,
		debounce: defaultDebounce,
		logger:   slog.Default(),
		touches:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.wg.Add(1)
	go a.loop(ctx)
	return a
}

// Touch records data-entry activity. It never blocks.
func (a *AutoSaver) Touch() {
	select {
	case a.touches <- struct{}{}:
	default:
	}
}

// Stop flushes a final save if the form is dirty and shuts the loop down.
func (a *AutoSaver) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
	a.wg.Wait()
}

func (a *AutoSaver) loop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	settle := time.NewTimer(a.debounce)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	dirty := false
	resetSettle := func() {
		if !settle.Stop() {
			select {
			case <-settle.C:
			default:
			}
		}
		settle.Reset(a.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			if dirty {
				a.save(ctx)
			}
			return
		case <-a.touches:
			dirty = true
			resetSettle()
		case <-settle.C:
			if dirty {
				a.save(ctx)
				dirty = false
			}
		case <-ticker.C:
			if dirty {
				a.save(ctx)
				dirty = false
			}
		}
	}
}

func (a *AutoSaver) save(ctx context.Context) {
	if err := a.store.Save(ctx, a.def, a.pageURL, a.snapshot()); err != nil {
		a.logger.Warn("draft autosave failed",
			slog.String("form", a.def.ID),
			slog.Any("error", err))
	}
}
