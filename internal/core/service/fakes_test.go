package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/infrastructure/store"
)

var errBackendDown = &domain.RequestError{Status: 503, Message: "Service unavailable"}

func newStorage() *store.Session {
	return store.NewSession(store.NewMemory(), zerolog.Nop())
}

// lockSeq runs operations inline under one lock.
type lockSeq struct{ mu sync.Mutex }

func (s *lockSeq) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

type fixedState struct{ state domain.AuthState }

func (f *fixedState) State() domain.AuthState { return f.state }

func customer() *domain.Identity {
	return &domain.Identity{ID: 1, Email: "ana@example.com", FirstName: "Ana", Role: domain.RoleCustomer}
}

func vendor() *domain.Identity {
	return &domain.Identity{ID: 2, Email: "shop@example.com", Role: domain.RoleVendor}
}

type stubAuthAPI struct {
	mu          sync.Mutex
	loginErr    error
	logoutErr   error
	profileErr  error
	identity    *domain.Identity
	logoutCalls int
	profileHits int
	updated     *domain.ProfileUpdate
}

func (a *stubAuthAPI) Login(_ context.Context, email, password string) (*domain.CredentialPair, *domain.Identity, error) {
	if a.loginErr != nil {
		return nil, nil, a.loginErr
	}
	return &domain.CredentialPair{Access: "access-1", Refresh: "refresh-1"}, a.identity, nil
}

func (a *stubAuthAPI) Register(_ context.Context, in domain.RegisterInput) (*domain.CredentialPair, *domain.Identity, error) {
	if a.loginErr != nil {
		return nil, nil, a.loginErr
	}
	id := &domain.Identity{ID: 9, Email: in.Email, FirstName: in.FirstName, Role: in.Role}
	return &domain.CredentialPair{Access: "access-r", Refresh: "refresh-r"}, id, nil
}

func (a *stubAuthAPI) Logout(context.Context, string) error {
	a.mu.Lock()
	a.logoutCalls++
	a.mu.Unlock()
	return a.logoutErr
}

func (a *stubAuthAPI) Profile(context.Context) (*domain.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profileHits++
	if a.profileErr != nil {
		return nil, a.profileErr
	}
	id := *a.identity
	if a.updated != nil && a.updated.FirstName != nil {
		id.FirstName = *a.updated.FirstName
	}
	return &id, nil
}

func (a *stubAuthAPI) UpdateProfile(_ context.Context, in domain.ProfileUpdate) error {
	a.mu.Lock()
	a.updated = &in
	a.mu.Unlock()
	return nil
}

func (a *stubAuthAPI) ChangePassword(context.Context, domain.PasswordChange) error { return nil }

type stubCartAPI struct {
	mu         sync.Mutex
	cart       domain.ServerCart
	nextLineID int64
	mergeErr   error
	mergeCalls int
	merged     []domain.GuestLine
	mergeWarns []string
	calls      int
}

func newStubCartAPI() *stubCartAPI { return &stubCartAPI{nextLineID: 100} }

func (c *stubCartAPI) snapshot() *domain.ServerCart {
	cart := c.cart
	cart.Items = append([]domain.ServerLine(nil), c.cart.Items...)
	cart.TotalItems = 0
	cart.Subtotal = dec("0")
	for _, l := range cart.Items {
		cart.TotalItems += l.Quantity
		cart.Subtotal = cart.Subtotal.Add(l.Subtotal)
	}
	return &cart
}

func (c *stubCartAPI) addLocked(productID int64, qty int) {
	for i, l := range c.cart.Items {
		if l.Product.ID == productID {
			c.cart.Items[i].Quantity += qty
			c.cart.Items[i].Subtotal = l.Product.Price.Mul(decimal.NewFromInt(int64(c.cart.Items[i].Quantity)))
			return
		}
	}
	p := catalog[productID]
	c.nextLineID++
	c.cart.Items = append(c.cart.Items, domain.ServerLine{
		ID: c.nextLineID, Product: p, Quantity: qty,
		Subtotal: p.Price.Mul(decimal.NewFromInt(int64(qty))), IsAvailable: true,
	})
}

func (c *stubCartAPI) Cart(context.Context) (*domain.ServerCart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.snapshot(), nil
}

func (c *stubCartAPI) Add(_ context.Context, productID int64, qty int) (*domain.ServerCart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.addLocked(productID, qty)
	return c.snapshot(), nil
}

func (c *stubCartAPI) Update(_ context.Context, lineID int64, qty int) (*domain.ServerCart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	for i, l := range c.cart.Items {
		if l.ID == lineID {
			c.cart.Items[i].Quantity = qty
			c.cart.Items[i].Subtotal = l.Product.Price.Mul(decimal.NewFromInt(int64(qty)))
			return c.snapshot(), nil
		}
	}
	return nil, &domain.RequestError{Status: 404, Message: "Cart item not found."}
}

func (c *stubCartAPI) Remove(_ context.Context, lineID int64) (*domain.ServerCart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	for i, l := range c.cart.Items {
		if l.ID == lineID {
			c.cart.Items = append(c.cart.Items[:i], c.cart.Items[i+1:]...)
			break
		}
	}
	return c.snapshot(), nil
}

func (c *stubCartAPI) Clear(context.Context) (*domain.ServerCart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.cart.Items = nil
	return c.snapshot(), nil
}

func (c *stubCartAPI) Merge(_ context.Context, lines []domain.GuestLine) (*domain.MergeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.mergeCalls++
	if c.mergeErr != nil {
		return nil, c.mergeErr
	}
	c.merged = append(c.merged, lines...)
	for _, l := range lines {
		c.addLocked(l.ProductID, l.Quantity)
	}
	return &domain.MergeResult{Message: "Cart merged", Errors: c.mergeWarns, Cart: c.snapshot()}, nil
}

func (c *stubCartAPI) Count(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.snapshot().TotalItems, nil
}

var catalog = map[int64]*domain.Product{
	7: {ID: 7, Name: "Mug", Price: dec("10.00"), Stock: 5, IsInStock: true},
	8: {ID: 8, Name: "Poster", Price: dec("20.00"), Stock: 1, IsInStock: true},
}

type stubLookup struct {
	mu    sync.Mutex
	fail  map[int64]bool
	calls int
}

func (l *stubLookup) Product(_ context.Context, id int64) (*domain.Product, error) {
	l.mu.Lock()
	l.calls++
	failing := l.fail[id]
	l.mu.Unlock()
	if failing {
		return nil, errBackendDown
	}
	p, ok := catalog[id]
	if !ok {
		return nil, &domain.RequestError{Status: 404, Message: "Not found."}
	}
	return p, nil
}

type stubOrderAPI struct {
	orders       map[string]*domain.Order
	vendorOrders map[string]*domain.VendorOrder
	guestLines   []domain.GuestLine
	checkoutErr  error
	cancelCalls  int
	statusCalls  int
	calls        int
}

func (o *stubOrderAPI) Checkout(context.Context, domain.CheckoutInput) (*domain.Order, error) {
	o.calls++
	if o.checkoutErr != nil {
		return nil, o.checkoutErr
	}
	return &domain.Order{OrderNumber: "ORD-1", Status: domain.StatusPending, Total: dec("49.00")}, nil
}

func (o *stubOrderAPI) GuestCheckout(_ context.Context, in domain.GuestCheckoutInput, lines []domain.GuestLine) (*domain.Order, error) {
	o.calls++
	if o.checkoutErr != nil {
		return nil, o.checkoutErr
	}
	o.guestLines = lines
	return &domain.Order{OrderNumber: "ORD-G", Status: domain.StatusPending, GuestEmail: in.Email}, nil
}

func (o *stubOrderAPI) Orders(context.Context) ([]domain.Order, error) {
	o.calls++
	out := make([]domain.Order, 0, len(o.orders))
	for _, ord := range o.orders {
		out = append(out, *ord)
	}
	return out, nil
}

func (o *stubOrderAPI) Order(_ context.Context, n string) (*domain.Order, error) {
	o.calls++
	ord, ok := o.orders[n]
	if !ok {
		return nil, &domain.RequestError{Status: 404, Message: "Not found."}
	}
	cp := *ord
	return &cp, nil
}

func (o *stubOrderAPI) GuestOrder(ctx context.Context, n, _ string) (*domain.Order, error) {
	return o.Order(ctx, n)
}

func (o *stubOrderAPI) Cancel(_ context.Context, n string) (*domain.Order, error) {
	o.calls++
	o.cancelCalls++
	ord := o.orders[n]
	ord.Status = domain.StatusCancelled
	cp := *ord
	return &cp, nil
}

func (o *stubOrderAPI) VendorOrders(context.Context) ([]domain.Order, error) {
	o.calls++
	return nil, nil
}

func (o *stubOrderAPI) VendorOrder(_ context.Context, n string) (*domain.VendorOrder, error) {
	o.calls++
	vo, ok := o.vendorOrders[n]
	if !ok {
		return nil, &domain.RequestError{Status: 404, Message: "Not found."}
	}
	return vo, nil
}

func (o *stubOrderAPI) UpdateItemStatus(_ context.Context, itemID int64, status domain.OrderStatus) (*domain.OrderItem, error) {
	o.calls++
	o.statusCalls++
	return &domain.OrderItem{ID: itemID, Status: status}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
