package catalog

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStale marks a listing response that was superseded by a newer load before
// it resolved. Every load is sequence-stamped and out-of-date results are
// discarded, so a slow response can never paint over a newer render.
var ErrStale = errors.New("catalog: superseded by a newer load")

// Loader serializes listing loads for one shop view. Concurrent loads are
// permitted; only the newest one may deliver its result.
type Loader struct {
	fetcher *Fetcher

	mu  sync.Mutex
	seq uint64
}

// NewLoader wraps a fetcher with stale-response discarding.
func NewLoader(fetcher *Fetcher) *Loader { return &Loader{fetcher: fetcher} }

// Load fetches the page for the filter. If another Load starts before this one
// resolves, the result is dropped and ErrStale returned.
func (l *Loader) Load(ctx context.Context, filter Filter) (Page, error) {
	l.mu.Lock()
	l.seq++
	stamp := l.seq
	l.mu.Unlock()

	page, err := l.fetcher.List(ctx, filter)

	l.mu.Lock()
	latest := l.seq
	l.mu.Unlock()
	if stamp != latest {
		return Page{}, ErrStale
	}
	return page, err
}

// Debouncer coalesces rapid input-driven triggers into one callback after a
// quiet period. It coalesces only; it does not serialize concurrent requests.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer returns a debouncer with the given quiet period; zero or
// negative falls back to DebounceDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DebounceDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet period, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
