package restapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/99minutos/storefront/internal/core/domain"
)

// CartAPI maps the server cart endpoints.
type CartAPI struct {
	c *Client
}

func NewCartAPI(c *Client) *CartAPI { return &CartAPI{c: c} }

func (a *CartAPI) Cart(ctx context.Context) (*domain.ServerCart, error) {
	var cart cartDTO
	if err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "cart/"}, &cart); err != nil {
		return nil, err
	}
	return cart.toDomain(), nil
}

func (a *CartAPI) Add(ctx context.Context, productID int64, qty int) (*domain.ServerCart, error) {
	return a.mutate(ctx, Request{
		Method: http.MethodPost,
		Path:   "cart/add/",
		Body:   map[string]any{"product_id": productID, "quantity": qty},
	})
}

func (a *CartAPI) Update(ctx context.Context, lineID int64, qty int) (*domain.ServerCart, error) {
	return a.mutate(ctx, Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("cart/update/%d/", lineID),
		Body:   map[string]int{"quantity": qty},
	})
}

func (a *CartAPI) Remove(ctx context.Context, lineID int64) (*domain.ServerCart, error) {
	return a.mutate(ctx, Request{Method: http.MethodDelete, Path: fmt.Sprintf("cart/remove/%d/", lineID)})
}

// Clear empties the server cart. The backend answers with a message only.
func (a *CartAPI) Clear(ctx context.Context) (*domain.ServerCart, error) {
	if err := a.c.Do(ctx, Request{Method: http.MethodDelete, Path: "cart/"}, nil); err != nil {
		return nil, err
	}
	return (*cartDTO)(nil).toDomain(), nil
}

func (a *CartAPI) Merge(ctx context.Context, lines []domain.GuestLine) (*domain.MergeResult, error) {
	var env cartEnvelope
	err := a.c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "cart/merge/",
		Body:   map[string]any{"items": lines},
	}, &env)
	if err != nil {
		return nil, err
	}
	return &domain.MergeResult{Message: env.Message, Errors: env.Errors, Cart: env.Cart.toDomain()}, nil
}

func (a *CartAPI) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "cart/count/"}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (a *CartAPI) mutate(ctx context.Context, r Request) (*domain.ServerCart, error) {
	var env cartEnvelope
	if err := a.c.Do(ctx, r, &env); err != nil {
		return nil, err
	}
	return env.Cart.toDomain(), nil
}
