package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// AuthAPI is the accounts surface of the storefront backend.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.CredentialPair, *domain.Identity, error)
	Register(ctx context.Context, in domain.RegisterInput) (*domain.CredentialPair, *domain.Identity, error)
	Logout(ctx context.Context, refresh string) error
	Profile(ctx context.Context) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) error
	ChangePassword(ctx context.Context, in domain.PasswordChange) error
}

// CartAPI is the server cart surface. Every mutation answers with the full
// cart snapshot.
type CartAPI interface {
	Cart(ctx context.Context) (*domain.ServerCart, error)
	Add(ctx context.Context, productID int64, qty int) (*domain.ServerCart, error)
	Update(ctx context.Context, lineID int64, qty int) (*domain.ServerCart, error)
	Remove(ctx context.Context, lineID int64) (*domain.ServerCart, error)
	Clear(ctx context.Context) (*domain.ServerCart, error)
	Merge(ctx context.Context, lines []domain.GuestLine) (*domain.MergeResult, error)
	Count(ctx context.Context) (int, error)
}

// CatalogAPI reads the public catalog. None of its calls carry credentials.
type CatalogAPI interface {
	Products(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error)
	Featured(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, term string) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (*domain.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Vendors(ctx context.Context) ([]domain.Vendor, error)
	Vendor(ctx context.Context, id int64) (*domain.Vendor, error)
}

// ProductLookup fetches single products; the guest cart uses it to price lines.
type ProductLookup interface {
	Product(ctx context.Context, id int64) (*domain.Product, error)
}

// OrderAPI is the orders surface, including the vendor fulfilment calls.
type OrderAPI interface {
	Checkout(ctx context.Context, in domain.CheckoutInput) (*domain.Order, error)
	GuestCheckout(ctx context.Context, in domain.GuestCheckoutInput, lines []domain.GuestLine) (*domain.Order, error)
	Orders(ctx context.Context) ([]domain.Order, error)
	Order(ctx context.Context, number string) (*domain.Order, error)
	GuestOrder(ctx context.Context, number, email string) (*domain.Order, error)
	Cancel(ctx context.Context, number string) (*domain.Order, error)
	VendorOrders(ctx context.Context) ([]domain.Order, error)
	VendorOrder(ctx context.Context, number string) (*domain.VendorOrder, error)
	UpdateItemStatus(ctx context.Context, itemID int64, status domain.OrderStatus) (*domain.OrderItem, error)
}
