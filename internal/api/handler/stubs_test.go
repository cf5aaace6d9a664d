package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/api/middleware"
	"github.com/99minutos/storefront/internal/app"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

type stubIdentity struct {
	ports.IdentityService
	state   domain.AuthState
	loginFn func(ctx context.Context, email, password string) (*domain.Identity, error)
}

func (s *stubIdentity) State() domain.AuthState { return s.state }

func (s *stubIdentity) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	id, err := s.loginFn(ctx, email, password)
	if err == nil {
		s.state = domain.Authenticated(id)
	}
	return id, err
}

func (s *stubIdentity) Register(context.Context, domain.RegisterInput) (*domain.Identity, error) {
	panic("register must not be reached")
}

type stubCart struct {
	ports.CartService
	addFn    func(productID int64, qty int) (*domain.CartView, error)
	updateFn func(ref domain.LineRef, qty int) (*domain.CartView, error)
}

func (s *stubCart) Add(_ context.Context, productID int64, qty int) (*domain.CartView, error) {
	return s.addFn(productID, qty)
}

func (s *stubCart) UpdateQuantity(_ context.Context, ref domain.LineRef, qty int) (*domain.CartView, error) {
	return s.updateFn(ref, qty)
}

type stubOrders struct {
	ports.OrderService
	checkoutFn      func(in domain.CheckoutInput) (*domain.Order, error)
	guestCheckoutFn func(in domain.GuestCheckoutInput) (*domain.Order, error)
	updateStatusFn  func(number string, itemID int64, next domain.OrderStatus) (*domain.OrderItem, error)
}

func (s *stubOrders) Checkout(_ context.Context, in domain.CheckoutInput) (*domain.Order, error) {
	return s.checkoutFn(in)
}

func (s *stubOrders) GuestCheckout(_ context.Context, in domain.GuestCheckoutInput) (*domain.Order, error) {
	return s.guestCheckoutFn(in)
}

func (s *stubOrders) UpdateItemStatus(_ context.Context, number string, itemID int64, next domain.OrderStatus) (*domain.OrderItem, error) {
	return s.updateStatusFn(number, itemID, next)
}

type stubCatalog struct {
	ports.CatalogAPI
	productsFn func(q domain.ProductQuery) (*domain.Page[domain.Product], error)
}

func (s *stubCatalog) Products(_ context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error) {
	return s.productsFn(q)
}

// newContext builds an echo context carrying s as the visitor session.
func newContext(method, target string, body string, s *app.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if s != nil {
		c.Set(middleware.SessionKey, s)
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
