// Package checkout submits orders and supplier inquiries to the backend.
package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	orderEndpoint      = "orders/user/orders/create/"
	guestOrderEndpoint = "orders/api/orders/create/"
	inquiryEndpoint    = "orders/supplier-inquiry/"
)

// API is the slice of the backend client checkout needs. Order creation is
// idempotent per submission attempt.
type API interface {
	PostIdempotent(ctx context.Context, endpoint, key string, payload, out any) error
	Post(ctx context.Context, endpoint string, payload, out any) error
}

// Client wraps the order endpoints of the backend.
type Client struct {
	api    API
	newKey func() string
}

// NewClient wires a checkout client to a backend client.
func NewClient(api API) *Client {
	return &Client{api: api, newKey: uuid.NewString}
}

// OrderRequest carries the checkout form. Name is the customer's full name;
// the backend stores it as one field.
type OrderRequest struct {
	Name    string `json:"customer_name"`
	Email   string `json:"customer_email"`
	Phone   string `json:"customer_phone"`
	Address string `json:"customer_address"`
	City    string `json:"city"`
}

// ErrIncompleteOrder rejects a submission missing a required field; the form
// is re-rendered instead of hitting the network.
var ErrIncompleteOrder = errors.New("checkout: name, phone, address and city are required")

// Validate checks the required fields before any network call.
func (r OrderRequest) Validate() error {
	for _, f := range []string{r.Name, r.Phone, r.Address, r.City} {
		if strings.TrimSpace(f) == "" {
			return ErrIncompleteOrder
		}
	}
	return nil
}

// OrderResponse is the backend's confirmation of a created order.
type OrderResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateOrder places an order from the signed-in visitor's cart.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return OrderResponse{}, err
	}
	var out OrderResponse
	if err := c.api.PostIdempotent(ctx, orderEndpoint, c.newKey(), req, &out); err != nil {
		return OrderResponse{}, err
	}
	return out, nil
}

// CreateGuestOrder places an order against an anonymous cart identified by its
// server-issued UUID.
func (c *Client) CreateGuestOrder(ctx context.Context, cartID uuid.UUID, req OrderRequest) (OrderResponse, error) {
	if cartID == uuid.Nil {
		return OrderResponse{}, errors.New("checkout: missing cart id")
	}
	if err := req.Validate(); err != nil {
		return OrderResponse{}, err
	}
	var out OrderResponse
	endpoint := guestOrderEndpoint + cartID.String() + "/"
	if err := c.api.PostIdempotent(ctx, endpoint, c.newKey(), req, &out); err != nil {
		return OrderResponse{}, err
	}
	return out, nil
}

// InquiryRequest is a wholesale supplier inquiry from the landing page.
type InquiryRequest struct {
	Item     string `json:"item"`
	Details  string `json:"details"`
	Quantity int    `json:"quantity"`
	Phone    string `json:"phone"`
}

// Validate checks the required inquiry fields.
func (r InquiryRequest) Validate() error {
	if strings.TrimSpace(r.Item) == "" || strings.TrimSpace(r.Phone) == "" {
		return errors.New("checkout: item and phone are required")
	}
	if r.Quantity <= 0 {
		return errors.New("checkout: quantity must be positive")
	}
	return nil
}

// SendInquiry submits a supplier inquiry and returns the confirmation message.
func (c *Client) SendInquiry(ctx context.Context, req InquiryRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.api.Post(ctx, inquiryEndpoint, req, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		out.Message = "Your inquiry has been sent successfully!"
	}
	return out.Message, nil
}
