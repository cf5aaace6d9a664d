package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/99minutos/storefront/internal/core/domain"
)

// OrderAPI maps the customer, guest and vendor order endpoints.
type OrderAPI struct {
	c *Client
}

func NewOrderAPI(c *Client) *OrderAPI { return &OrderAPI{c: c} }

type orderEnvelope struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type checkoutBody struct {
	domain.ShippingAddress
	AddressID   int64  `json:"address_id,omitempty"`
	SaveAddress bool   `json:"save_address"`
	Notes       string `json:"customer_notes,omitempty"`
}

type guestCheckoutBody struct {
	Email string `json:"guest_email"`
	domain.ShippingAddress
	Items []domain.GuestLine `json:"items"`
	Notes string             `json:"customer_notes,omitempty"`
}

func (a *OrderAPI) Checkout(ctx context.Context, in domain.CheckoutInput) (*domain.Order, error) {
	body := checkoutBody{AddressID: in.AddressID, SaveAddress: in.SaveAddress, Notes: in.Notes}
	if in.Shipping != nil {
		body.ShippingAddress = *in.Shipping
	}
	var env orderEnvelope
	if err := a.c.Do(ctx, Request{Method: http.MethodPost, Path: "orders/checkout/", Body: body}, &env); err != nil {
		return nil, err
	}
	return env.Order, nil
}

func (a *OrderAPI) GuestCheckout(ctx context.Context, in domain.GuestCheckoutInput, lines []domain.GuestLine) (*domain.Order, error) {
	body := guestCheckoutBody{Email: in.Email, ShippingAddress: in.Shipping, Items: lines, Notes: in.Notes}
	var env orderEnvelope
	err := a.c.Do(ctx, Request{Method: http.MethodPost, Path: "orders/guest-checkout/", Body: body, SkipAuth: true}, &env)
	if err != nil {
		return nil, err
	}
	return env.Order, nil
}

func (a *OrderAPI) Orders(ctx context.Context) ([]domain.Order, error) {
	var list listOf[domain.Order]
	if err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "orders/"}, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (a *OrderAPI) Order(ctx context.Context, number string) (*domain.Order, error) {
	var o domain.Order
	if err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "orders/" + segment(number) + "/"}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *OrderAPI) GuestOrder(ctx context.Context, number, email string) (*domain.Order, error) {
	var o domain.Order
	err := a.c.Do(ctx, Request{
		Method:   http.MethodGet,
		Path:     "orders/guest/" + segment(number) + "/",
		Query:    url.Values{"email": {email}},
		SkipAuth: true,
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *OrderAPI) Cancel(ctx context.Context, number string) (*domain.Order, error) {
	var env orderEnvelope
	err := a.c.Do(ctx, Request{Method: http.MethodPost, Path: "orders/" + segment(number) + "/cancel/"}, &env)
	if err != nil {
		return nil, err
	}
	return env.Order, nil
}

func (a *OrderAPI) VendorOrders(ctx context.Context) ([]domain.Order, error) {
	var list listOf[domain.Order]
	if err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "orders/vendor/list/"}, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (a *OrderAPI) VendorOrder(ctx context.Context, number string) (*domain.VendorOrder, error) {
	var vo domain.VendorOrder
	err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "orders/vendor/" + segment(number) + "/"}, &vo)
	if err != nil {
		return nil, err
	}
	return &vo, nil
}

func (a *OrderAPI) UpdateItemStatus(ctx context.Context, itemID int64, status domain.OrderStatus) (*domain.OrderItem, error) {
	var resp struct {
		Item *domain.OrderItem `json:"item"`
	}
	err := a.c.Do(ctx, Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("orders/vendor/item/%d/status/", itemID),
		Body:   map[string]domain.OrderStatus{"status": status},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}
