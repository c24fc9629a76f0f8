package cart

import (
	"context"
	"sync"
	"time"
)

// DefaultRefreshInterval matches the five-minute cart auto-refresh of the
// storefront UI.
const DefaultRefreshInterval = 5 * time.Minute

// Refresher periodically reloads the cart. Unlike a free-running interval, it
// is tied to a lifecycle: Start binds it to a context and Stop (or context
// cancellation) ends it, so no timer outlives its owner.
type Refresher struct {
	interval time.Duration
	reload   func(context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRefresher builds a refresher calling reload every interval; zero or
// negative falls back to DefaultRefreshInterval.
func NewRefresher(interval time.Duration, reload func(context.Context)) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{interval: interval, reload: reload}
}

// Start begins periodic reloading. Calling Start on a running refresher is a
// no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.reload(ctx)
			}
		}
	}(r.done)
}

// Stop cancels the periodic reload and waits for the worker to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	r.running = false
	r.mu.Unlock()

	cancel()
	<-done
}
