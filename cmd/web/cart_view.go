package main

import (
	"github.com/shopspring/decimal"

	"finitefield.org/storefront-web/internal/cart"
)

// CartVM is the cart page view model.
type CartVM struct {
	Cart cart.Cart
	// Mode selects the page body: "cart", "empty" or "auth".
	Mode  string
	Count int
	// RefreshSeconds drives the periodic htmx re-fetch of the cart page.
	RefreshSeconds int
}

// RowVM is one updated line for the htmx out-of-band row swap.
type RowVM struct {
	ID       int64
	Quantity int
	Total    decimal.Decimal
}

// htmlCartView implements cart.View by collecting template fragments. The
// recording flag separates the initial Load renders, which the page handler
// consumes as a whole, from mutation renders that become the htmx response.
type htmlCartView struct {
	vm        CartVM
	recording bool
	frags     []fragment
	// scheduleReload marks that the mutation failed and the client should
	// re-fetch the cart region after a beat.
	reload bool
}

func (v *htmlCartView) add(name string, data any) {
	if v.recording {
		v.frags = append(v.frags, fragment{name: name, data: data})
	}
}

func (v *htmlCartView) ShowCart(c cart.Cart) {
	v.vm.Cart = c
	v.vm.Mode = "cart"
	v.add("frag_cart_table", &v.vm)
}

func (v *htmlCartView) ShowSummary(s cart.Summary) {
	v.vm.Cart.Summary = s
	v.add("frag_cart_summary", s)
}

func (v *htmlCartView) ShowEmpty() {
	v.vm.Mode = "empty"
	v.add("frag_cart_empty", nil)
}

func (v *htmlCartView) ShowAuthRequired() {
	v.vm.Mode = "auth"
	v.add("frag_cart_auth", nil)
}

func (v *htmlCartView) SetCount(n int) {
	v.vm.Count = n
	v.add("frag_cart_badge_oob", n)
}

// Locking renders client-side via htmx request indicators; nothing to emit.
func (v *htmlCartView) LockItem(id int64)   {}
func (v *htmlCartView) UnlockItem(id int64) {}

func (v *htmlCartView) ApplyItem(id int64, quantity int, total decimal.Decimal) {
	if it := v.vm.Cart.Find(id); it != nil {
		it.Quantity = quantity
		it.Total = total
	}
	v.add("frag_cart_row", RowVM{ID: id, Quantity: quantity, Total: total})
}

func (v *htmlCartView) RemoveItem(id int64) {
	items := v.vm.Cart.Items[:0]
	for _, it := range v.vm.Cart.Items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	v.vm.Cart.Items = items
	v.add("frag_cart_row_remove", id)
}

// RevertItem re-renders the row from the pre-mutation state held in the view.
func (v *htmlCartView) RevertItem(id int64) {
	if it := v.vm.Cart.Find(id); it != nil {
		v.add("frag_cart_row", RowVM{ID: it.ID, Quantity: it.Quantity, Total: it.Total})
	}
	v.reload = true
}
