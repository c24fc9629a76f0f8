package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"finitefield.org/storefront-web/internal/backend"
	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/checkout"
	"finitefield.org/storefront-web/internal/notify"
)

// CheckoutVM is the checkout page view model: the order summary plus the form
// state for re-rendering after validation failures.
type CheckoutVM struct {
	Cart      cart.Cart
	Form      checkout.OrderRequest
	FormError string
	Placed    *checkout.OrderResponse
}

// checkoutHandler renders the checkout form with the current order summary.
func (a *app) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	client, bc := a.cartFor(r)
	current, err := client.Get(r.Context())
	bc.Relay(w)
	if err != nil {
		if errors.Is(err, backend.ErrSessionExpired) {
			a.redirectToLogin(w, r)
			return
		}
		a.log.Error().Err(err).Msg("checkout summary")
		http.Error(w, "cart unavailable", http.StatusBadGateway)
		return
	}
	if current.Empty() {
		http.Redirect(w, r, "/cart/", http.StatusSeeOther)
		return
	}

	pd := a.newPageData(r, "Checkout")
	pd.CartCount = len(current.Items)
	pd.Checkout = &CheckoutVM{Cart: current}
	a.renderPage(w, r, pd)
}

// checkoutSubmitHandler places the order. A cart_id field switches to the
// guest path; validation failures re-render the form with the entered values.
func (a *app) checkoutSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := checkout.OrderRequest{
		Name:    strings.TrimSpace(strings.Join([]string{r.FormValue("first_name"), r.FormValue("last_name")}, " ")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Address: strings.TrimSpace(r.FormValue("address")),
		City:    strings.TrimSpace(r.FormValue("city")),
	}

	client, bc := a.checkoutFor(r)
	var (
		placed checkout.OrderResponse
		err    error
	)
	if rawCartID := strings.TrimSpace(r.FormValue("cart_id")); rawCartID != "" {
		var cartID uuid.UUID
		cartID, err = uuid.Parse(rawCartID)
		if err == nil {
			placed, err = client.CreateGuestOrder(r.Context(), cartID, form)
		}
	} else {
		placed, err = client.CreateOrder(r.Context(), form)
	}
	bc.Relay(w)

	if err != nil {
		if errors.Is(err, backend.ErrSessionExpired) {
			a.redirectToLogin(w, r)
			return
		}
		fallback := "Order could not be placed"
		if errors.Is(err, checkout.ErrIncompleteOrder) {
			fallback = "Please fill in all required fields."
		}
		vm := CheckoutVM{Form: form, FormError: errorText(err, fallback)}
		cartClient, _ := a.cartFor(r)
		if current, cerr := cartClient.Get(r.Context()); cerr == nil {
			vm.Cart = current
		}
		pd := a.newPageData(r, "Checkout")
		pd.Notices = []notify.Notice{{Level: notify.LevelError, Message: vm.FormError}}
		pd.Checkout = &vm
		w.WriteHeader(http.StatusUnprocessableEntity)
		a.renderPage(w, r, pd)
		return
	}

	pd := a.newPageData(r, "Order placed")
	pd.Notices = []notify.Notice{{Level: notify.LevelSuccess, Message: "Your order has been placed."}}
	pd.Checkout = &CheckoutVM{Placed: &placed}
	a.renderPage(w, r, pd)
}
