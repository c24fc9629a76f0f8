package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"finitefield.org/storefront-web/internal/backend"
	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/notify"
)

// cartHandler renders the cart page: items, summary, or the signed-out /
// empty states.
func (a *app) cartHandler(w http.ResponseWriter, r *http.Request) {
	client, bc := a.cartFor(r)
	view := &htmlCartView{}
	notices := &notify.Buffer{}
	rec := cart.NewReconciler(client, view, notices)

	_, err := rec.Load(r.Context())
	bc.Relay(w)
	if err != nil && !errors.Is(err, backend.ErrSessionExpired) {
		a.log.Error().Err(err).Msg("cart load")
		view.vm.Mode = "error"
	}

	view.vm.RefreshSeconds = int(a.cfg.CartRefresh.Seconds())
	pd := a.newPageData(r, "Cart")
	pd.CartCount = view.vm.Count
	pd.Notices = notices.Drain()
	pd.Cart = &view.vm
	a.renderPage(w, r, pd)
}

// cartQuantityHandler applies a +1/-1 edit to one line and answers with the
// htmx fragments the mutation produced.
func (a *app) cartQuantityHandler(w http.ResponseWriter, r *http.Request) {
	itemID, ok := cartItemID(r)
	if !ok {
		http.Error(w, "bad item id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	delta, err := strconv.Atoi(r.FormValue("delta"))
	if err != nil || (delta != 1 && delta != -1) {
		http.Error(w, "bad delta", http.StatusBadRequest)
		return
	}

	a.runCartMutation(w, r, func(rec *cart.Reconciler) error {
		return rec.ChangeQuantity(r.Context(), itemID, delta)
	})
}

// cartRemoveHandler deletes one line.
func (a *app) cartRemoveHandler(w http.ResponseWriter, r *http.Request) {
	itemID, ok := cartItemID(r)
	if !ok {
		http.Error(w, "bad item id", http.StatusBadRequest)
		return
	}

	a.runCartMutation(w, r, func(rec *cart.Reconciler) error {
		return rec.Remove(r.Context(), itemID)
	})
}

// runCartMutation loads the cart silently to seed the reconciler, runs the
// mutation with fragment recording on, and writes the produced fragments.
func (a *app) runCartMutation(w http.ResponseWriter, r *http.Request, mutate func(*cart.Reconciler) error) {
	client, bc := a.cartFor(r)
	view := &htmlCartView{}
	notices := &notify.Buffer{}
	// The delayed reload after a failed mutation renders as an htmx
	// self-triggering fragment, so the server never holds a timer.
	rec := cart.NewReconciler(client, view, notices,
		cart.WithScheduler(func(time.Duration, func()) {}))

	if _, err := rec.Load(r.Context()); err != nil {
		bc.Relay(w)
		if errors.Is(err, backend.ErrSessionExpired) {
			a.renderTemplate(w, r, "frag_cart_auth", nil)
			return
		}
		a.log.Error().Err(err).Msg("cart load")
		http.Error(w, "cart unavailable", http.StatusBadGateway)
		return
	}

	view.recording = true
	err := mutate(rec)
	bc.Relay(w)
	if errors.Is(err, backend.ErrSessionExpired) {
		a.renderTemplate(w, r, "frag_cart_auth", nil)
		return
	}

	frags := view.frags
	for _, n := range notices.Drain() {
		frags = append(frags, fragment{name: "frag_notice", data: n})
	}
	if view.reload {
		frags = append(frags, fragment{name: "frag_cart_reload", data: nil})
	}
	a.renderFragments(w, r, frags)
}

func cartItemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	return id, err == nil && id > 0
}
