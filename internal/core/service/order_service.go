package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/api/metrics"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// CartReloader refreshes the cart view after the backend changed the cart.
type CartReloader interface {
	Load(ctx context.Context) (*domain.CartView, error)
}

// OrderService places orders and follows them up, for customers, guests and
// vendors.
type OrderService struct {
	identity AuthStateReader
	api      ports.OrderAPI
	guest    ports.GuestCartStore
	cart     CartReloader
	logger   zerolog.Logger
}

// NewOrderService builds an OrderService. cart may be nil.
func NewOrderService(identity AuthStateReader, api ports.OrderAPI, guest ports.GuestCartStore, cart CartReloader, logger zerolog.Logger) *OrderService {
	return &OrderService{identity: identity, api: api, guest: guest, cart: cart, logger: logger}
}

// Checkout turns the signed-in user's server cart into an order. The backend
// empties the cart; the cart view is reloaded afterwards.
func (s *OrderService) Checkout(ctx context.Context, in domain.CheckoutInput) (*domain.Order, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	order, err := s.api.Checkout(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	metrics.OrdersPlacedTotal.WithLabelValues("customer").Inc()
	s.logger.Info().Str("order_number", order.OrderNumber).Str("total", order.Total.StringFixed(2)).Msg("order placed")

	if s.cart != nil {
		if _, err := s.cart.Load(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to reload cart after checkout")
		}
	}
	return order, nil
}

// GuestCheckout orders the guest cart. The guest cart is cleared once the
// backend accepted the order.
func (s *OrderService) GuestCheckout(ctx context.Context, in domain.GuestCheckoutInput) (*domain.Order, error) {
	lines, err := s.guest.GuestLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("guest checkout: %w", err)
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	order, err := s.api.GuestCheckout(ctx, in, lines)
	if err != nil {
		return nil, fmt.Errorf("guest checkout: %w", err)
	}
	metrics.OrdersPlacedTotal.WithLabelValues("guest").Inc()
	s.logger.Info().Str("order_number", order.OrderNumber).Msg("guest order placed")

	if err := s.guest.ClearGuestLines(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear guest cart after checkout")
	}
	return order, nil
}

func (s *OrderService) Orders(ctx context.Context) ([]domain.Order, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.api.Orders(ctx)
}

func (s *OrderService) Order(ctx context.Context, number string) (*domain.Order, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.api.Order(ctx, number)
}

// GuestOrder looks up an order by number and the email it was placed with.
func (s *OrderService) GuestOrder(ctx context.Context, number, email string) (*domain.Order, error) {
	return s.api.GuestOrder(ctx, number, email)
}

// Cancel cancels a pending order. The order is fetched first so a
// non-pending order is refused without a cancel call.
func (s *OrderService) Cancel(ctx context.Context, number string) (*domain.Order, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	order, err := s.api.Order(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("cancel %s: %w", number, err)
	}
	if !order.Cancellable() {
		return nil, fmt.Errorf("cancel %s (%s): %w", number, order.Status, domain.ErrOrderNotCancellable)
	}
	cancelled, err := s.api.Cancel(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("cancel %s: %w", number, err)
	}
	s.logger.Info().Str("order_number", number).Msg("order cancelled")
	return cancelled, nil
}

func (s *OrderService) VendorOrders(ctx context.Context) ([]domain.Order, error) {
	if err := s.requireVendor(); err != nil {
		return nil, err
	}
	return s.api.VendorOrders(ctx)
}

func (s *OrderService) VendorOrder(ctx context.Context, number string) (*domain.VendorOrder, error) {
	if err := s.requireVendor(); err != nil {
		return nil, err
	}
	return s.api.VendorOrder(ctx, number)
}

// UpdateItemStatus moves one of the vendor's order items to next. The item is
// looked up in the vendor's view of the order first; which moves are allowed
// is left to the backend.
func (s *OrderService) UpdateItemStatus(ctx context.Context, orderNumber string, itemID int64, next domain.OrderStatus) (*domain.OrderItem, error) {
	if err := s.requireVendor(); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, fmt.Errorf("status %q: %w", next, domain.ErrInvalidTransition)
	}

	order, err := s.api.VendorOrder(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}
	var current *domain.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			current = &order.Items[i]
			break
		}
	}
	if current == nil {
		return nil, fmt.Errorf("item %d of order %s: %w", itemID, orderNumber, domain.ErrItemNotFound)
	}

	item, err := s.api.UpdateItemStatus(ctx, itemID, next)
	if err != nil {
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}
	s.logger.Info().
		Str("order_number", orderNumber).
		Int64("item_id", itemID).
		Str("from", string(current.Status)).
		Str("to", string(next)).
		Msg("order item status updated")
	return item, nil
}

func (s *OrderService) requireAuth() error {
	if !s.identity.State().IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	return nil
}

func (s *OrderService) requireVendor() error {
	state := s.identity.State()
	if !state.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	if !state.HasRole(domain.RoleVendor, domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	return nil
}
