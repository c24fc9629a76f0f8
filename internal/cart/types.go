// Package cart mirrors the server-owned shopping cart and reconciles local
// display state against it. The server stays authoritative: after most
// mutations the whole collection is re-read rather than recomputed locally,
// trading one extra request for totals that cannot drift.
package cart

import "github.com/shopspring/decimal"

// ItemProduct is the product summary nested in a cart line item.
type ItemProduct struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image_1"`
	Categories []int64         `json:"categories"`
	Options    []int64         `json:"options"`
	Colors     []int64         `json:"color"`
	Sizes      []int64         `json:"size"`
}

// Item is one cart line. Quantity and Total are server-derived; the client
// never multiplies price by quantity itself.
type Item struct {
	ID       int64           `json:"id"`
	Product  ItemProduct     `json:"product"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// Summary holds the derived money amounts returned alongside the item list.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Cart is the full server payload for the cart view.
type Cart struct {
	Items []Item `json:"items"`
	Summary
}

// Empty reports whether the cart holds no items.
func (c Cart) Empty() bool { return len(c.Items) == 0 }

// Find returns the item with the given id, or nil.
func (c Cart) Find(id int64) *Item {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemUpdate is the normalized result of a quantity mutation.
type ItemUpdate struct {
	ID       int64           `json:"id"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}
