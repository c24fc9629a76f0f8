package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finitefield.org/storefront-web/internal/backend"
	"finitefield.org/storefront-web/internal/notify"
)

// DefaultReloadDelay is how long the reconciler waits before the self-healing
// full reload that follows a failed mutation.
const DefaultReloadDelay = time.Second

const (
	msgQuantityFloor  = "Quantity must be greater than zero"
	msgQuantityUpdate = "Quantity updated successfully"
	msgUpdateFailed   = "Failed to update quantity"
	msgRemoveFailed   = "Failed to remove item"
	msgRemoved        = "Item removed successfully"
)

var (
	// ErrQuantityFloor rejects a decrease below one item. Removal is a
	// separate explicit action, never an implicit decrement.
	ErrQuantityFloor = errors.New("cart: quantity already at minimum")
	// ErrItemBusy rejects a mutation while the same line is still updating.
	ErrItemBusy = errors.New("cart: item update already in flight")
	// ErrUnknownItem rejects a mutation for a line the reconciler never saw.
	ErrUnknownItem = errors.New("cart: unknown item")
)

// View is the rendering surface the reconciler drives. Locking is per line
// item: operations on other items proceed while one line is updating.
type View interface {
	// ShowCart renders the whole cart wholesale.
	ShowCart(Cart)
	// ShowSummary replaces the totals block.
	ShowSummary(Summary)
	// ShowEmpty swaps in the empty-cart state.
	ShowEmpty()
	// ShowAuthRequired replaces the entire cart region with the login view.
	// Terminal: the reconciler never retries past it.
	ShowAuthRequired()
	// SetCount updates the cart badge.
	SetCount(int)
	// LockItem disables one line's controls while a mutation is in flight.
	LockItem(id int64)
	// UnlockItem re-enables the line's controls.
	UnlockItem(id int64)
	// ApplyItem merges the server-confirmed quantity and total into the line.
	ApplyItem(id int64, quantity int, total decimal.Decimal)
	// RemoveItem drops the line from the view.
	RemoveItem(id int64)
	// RevertItem restores the line's pre-mutation visible state.
	RevertItem(id int64)
}

type lineState struct {
	quantity int
	updating bool
}

// Reconciler runs the per-line state machine Idle -> Updating -> Idle,
// merging server-authoritative responses back into the view and rolling the
// view back when a mutation fails.
type Reconciler struct {
	client      *Client
	view        View
	notifier    notify.Notifier
	reloadDelay time.Duration
	after       func(time.Duration, func())

	mu    sync.Mutex
	lines map[int64]*lineState
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithReloadDelay overrides the delay before the post-failure cart reload.
func WithReloadDelay(d time.Duration) Option {
	return func(r *Reconciler) { r.reloadDelay = d }
}

// WithScheduler replaces the timer used for the delayed reload; tests inject a
// synchronous scheduler here.
func WithScheduler(after func(time.Duration, func())) Option {
	return func(r *Reconciler) { r.after = after }
}

// NewReconciler builds a reconciler over a cart client, a view, and a
// notifier.
func NewReconciler(client *Client, view View, notifier notify.Notifier, opts ...Option) *Reconciler {
	r := &Reconciler{
		client:      client,
		view:        view,
		notifier:    notifier,
		reloadDelay: DefaultReloadDelay,
		after:       func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		lines:       map[int64]*lineState{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load re-reads the cart from the server, seeds the line states, and renders.
func (r *Reconciler) Load(ctx context.Context) (Cart, error) {
	cart, err := r.client.Get(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrSessionExpired) {
			r.authRequired()
		}
		return Cart{}, err
	}

	r.mu.Lock()
	r.lines = make(map[int64]*lineState, len(cart.Items))
	for _, it := range cart.Items {
		r.lines[it.ID] = &lineState{quantity: it.Quantity}
	}
	r.mu.Unlock()

	if cart.Empty() {
		r.view.ShowEmpty()
		r.view.SetCount(0)
		r.view.ShowSummary(Summary{})
		return cart, nil
	}
	r.view.ShowCart(cart)
	r.view.SetCount(len(cart.Items))
	r.view.ShowSummary(cart.Summary)
	return cart, nil
}

// ChangeQuantity applies a signed delta to one line. A decrease at quantity
// one is rejected locally with a validation notice and no network call.
func (r *Reconciler) ChangeQuantity(ctx context.Context, itemID int64, delta int) error {
	r.mu.Lock()
	st, ok := r.lines[itemID]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownItem
	}
	if st.updating {
		r.mu.Unlock()
		return ErrItemBusy
	}
	if delta < 0 && st.quantity <= 1 {
		r.mu.Unlock()
		notify.Error(r.notifier, msgQuantityFloor)
		return ErrQuantityFloor
	}
	st.updating = true
	r.mu.Unlock()

	r.view.LockItem(itemID)
	defer func() {
		r.mu.Lock()
		st.updating = false
		r.mu.Unlock()
		r.view.UnlockItem(itemID)
	}()

	upd, err := r.client.UpdateQuantity(ctx, itemID, delta)
	if err != nil {
		if errors.Is(err, backend.ErrSessionExpired) {
			r.authRequired()
			return err
		}
		notify.Error(r.notifier, userMessage(err, msgUpdateFailed))
		r.view.RevertItem(itemID)
		r.scheduleReload()
		return err
	}

	r.mu.Lock()
	st.quantity = upd.Quantity
	r.mu.Unlock()
	r.view.ApplyItem(itemID, upd.Quantity, upd.Total)
	r.refreshSummary(ctx)
	notify.Success(r.notifier, msgQuantityUpdate)
	return nil
}

// Remove deletes one line. On success the line leaves the view; when the cart
// empties the empty state replaces it and the summary zeroes.
func (r *Reconciler) Remove(ctx context.Context, itemID int64) error {
	r.mu.Lock()
	st, ok := r.lines[itemID]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownItem
	}
	if st.updating {
		r.mu.Unlock()
		return ErrItemBusy
	}
	st.updating = true
	r.mu.Unlock()

	r.view.LockItem(itemID)

	msg, err := r.client.Remove(ctx, itemID)
	if err != nil {
		r.mu.Lock()
		st.updating = false
		r.mu.Unlock()
		if errors.Is(err, backend.ErrSessionExpired) {
			r.authRequired()
			return err
		}
		notify.Error(r.notifier, userMessage(err, msgRemoveFailed))
		r.view.RevertItem(itemID)
		r.view.UnlockItem(itemID)
		return err
	}

	r.mu.Lock()
	delete(r.lines, itemID)
	remaining := len(r.lines)
	r.mu.Unlock()

	r.view.RemoveItem(itemID)
	if msg == "" {
		msg = msgRemoved
	}
	notify.Success(r.notifier, msg)

	if remaining == 0 {
		r.view.ShowEmpty()
		r.view.SetCount(0)
		r.view.ShowSummary(Summary{})
		return nil
	}
	r.view.SetCount(remaining)
	r.refreshSummary(ctx)
	return nil
}

// refreshSummary re-reads the cart so the totals stay server-derived. A
// failure here is not fatal to the mutation that preceded it.
func (r *Reconciler) refreshSummary(ctx context.Context) {
	cart, err := r.client.Get(ctx)
	if err != nil {
		return
	}
	r.view.ShowSummary(cart.Summary)
	r.view.SetCount(len(cart.Items))
}

func (r *Reconciler) scheduleReload() {
	r.after(r.reloadDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = r.Load(ctx)
	})
}

func (r *Reconciler) authRequired() {
	r.view.SetCount(0)
	r.view.ShowSummary(Summary{})
	r.view.ShowAuthRequired()
}

// userMessage prefers the backend's own message over the generic fallback.
func userMessage(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
