package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// TransitionListener observes identity state changes.
type TransitionListener func(ctx context.Context, t domain.Transition)

// IdentityService is the identity state machine of one session.
type IdentityService interface {
	State() domain.AuthState
	Restore(ctx context.Context) domain.AuthState
	Verify(ctx context.Context) error
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Register(ctx context.Context, in domain.RegisterInput) (*domain.Identity, error)
	Logout(ctx context.Context) error
	RefreshIdentity(ctx context.Context) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.Identity, error)
	ChangePassword(ctx context.Context, in domain.PasswordChange) error
	Subscribe(l TransitionListener)
}

// CartService reconciles the guest and server carts of one session.
type CartService interface {
	Load(ctx context.Context) (*domain.CartView, error)
	Add(ctx context.Context, productID int64, qty int) (*domain.CartView, error)
	UpdateQuantity(ctx context.Context, ref domain.LineRef, qty int) (*domain.CartView, error)
	Remove(ctx context.Context, ref domain.LineRef) (*domain.CartView, error)
	Clear(ctx context.Context) (*domain.CartView, error)
	Count(ctx context.Context) (int, error)
	RetryMerge(ctx context.Context) (*domain.CartView, error)
}

// OrderService places and tracks orders for one session.
type OrderService interface {
	Checkout(ctx context.Context, in domain.CheckoutInput) (*domain.Order, error)
	GuestCheckout(ctx context.Context, in domain.GuestCheckoutInput) (*domain.Order, error)
	Orders(ctx context.Context) ([]domain.Order, error)
	Order(ctx context.Context, number string) (*domain.Order, error)
	GuestOrder(ctx context.Context, number, email string) (*domain.Order, error)
	Cancel(ctx context.Context, number string) (*domain.Order, error)
	VendorOrders(ctx context.Context) ([]domain.Order, error)
	VendorOrder(ctx context.Context, number string) (*domain.VendorOrder, error)
	UpdateItemStatus(ctx context.Context, orderNumber string, itemID int64, next domain.OrderStatus) (*domain.OrderItem, error)
}
