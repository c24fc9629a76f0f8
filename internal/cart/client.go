package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	cartEndpoint     = "orders/items-list/cart/"
	addEndpoint      = "orders/add-to-cart/"
	wishlistEndpoint = "orders/add-to-wishlist/"
)

// API is the slice of the backend client the cart needs.
type API interface {
	Get(ctx context.Context, endpoint string, query url.Values, out any) error
	Post(ctx context.Context, endpoint string, payload, out any) error
	Put(ctx context.Context, endpoint string, payload, out any) error
	Delete(ctx context.Context, endpoint string, out any) error
}

// Client wraps the cart endpoints of the backend.
type Client struct {
	api API
}

// NewClient wires a cart client to a backend client.
func NewClient(api API) *Client { return &Client{api: api} }

// Get re-reads the whole cart.
func (c *Client) Get(ctx context.Context) (Cart, error) {
	var out Cart
	if err := c.api.Get(ctx, cartEndpoint, nil, &out); err != nil {
		return Cart{}, err
	}
	if out.Items == nil {
		out.Items = []Item{}
	}
	return out, nil
}

// UpdateQuantity applies a signed quantity change to one line item.
//
// The updated line item object {id, quantity, total} is the authoritative
// response shape. Older backend versions answered with the whole cart or with
// an {item: {...}} envelope; those are normalized here, in one place, so no
// caller ever probes shapes at the call site.
func (c *Client) UpdateQuantity(ctx context.Context, itemID int64, change int) (ItemUpdate, error) {
	var raw json.RawMessage
	endpoint := cartEndpoint + strconv.FormatInt(itemID, 10) + "/"
	payload := map[string]int{"quantity_change": change}
	if err := c.api.Put(ctx, endpoint, payload, &raw); err != nil {
		return ItemUpdate{}, err
	}
	upd, err := normalizeUpdate(raw, itemID)
	if err != nil {
		return ItemUpdate{}, err
	}
	return upd, nil
}

// Remove deletes a line item and returns the server's confirmation message.
func (c *Client) Remove(ctx context.Context, itemID int64) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	endpoint := cartEndpoint + strconv.FormatInt(itemID, 10) + "/"
	if err := c.api.Delete(ctx, endpoint, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// AddRequest carries an add-to-cart submission. Variant fields are optional;
// the backend validates required selections.
type AddRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity,omitempty"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	Options   string `json:"options,omitempty"`
}

// Add places a product into the cart.
func (c *Client) Add(ctx context.Context, req AddRequest) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.api.Post(ctx, addEndpoint, req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// AddToWishlist places a product on the visitor's wishlist.
func (c *Client) AddToWishlist(ctx context.Context, productID string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	payload := map[string]string{"product_id": productID}
	if err := c.api.Post(ctx, wishlistEndpoint, payload, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func normalizeUpdate(raw json.RawMessage, itemID int64) (ItemUpdate, error) {
	var envelope struct {
		ID       *int64           `json:"id"`
		Quantity *int             `json:"quantity"`
		Total    *decimal.Decimal `json:"total"`
		Item     *ItemUpdate      `json:"item"`
		Items    []Item           `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ItemUpdate{}, fmt.Errorf("cart: decode quantity update: %w", err)
	}

	var upd ItemUpdate
	switch {
	case len(envelope.Items) > 0:
		found := false
		for _, it := range envelope.Items {
			if it.ID == itemID {
				upd = ItemUpdate{ID: it.ID, Quantity: it.Quantity, Total: it.Total}
				found = true
				break
			}
		}
		if !found {
			return ItemUpdate{}, errors.New("cart: updated item missing from response")
		}
	case envelope.Item != nil:
		upd = *envelope.Item
		if upd.ID == 0 {
			upd.ID = itemID
		}
	case envelope.Quantity != nil:
		upd.ID = itemID
		if envelope.ID != nil {
			upd.ID = *envelope.ID
		}
		upd.Quantity = *envelope.Quantity
		if envelope.Total != nil {
			upd.Total = *envelope.Total
		}
	default:
		return ItemUpdate{}, errors.New("cart: unrecognized quantity update response")
	}

	if upd.Quantity <= 0 {
		return ItemUpdate{}, errors.New("cart: invalid quantity received from server")
	}
	return upd, nil
}
