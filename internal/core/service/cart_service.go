package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/storefront/internal/api/metrics"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

const defaultLookupConcurrency = 4

// AuthStateReader exposes the current identity state.
type AuthStateReader interface {
	State() domain.AuthState
}

// Sequencer runs the operations submitted for one key one at a time, in
// submission order.
type Sequencer interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// CartDeps wires a CartService.
type CartDeps struct {
	Identity AuthStateReader
	API      ports.CartAPI
	Guest    ports.GuestCartStore
	Products ports.ProductLookup
	Seq      Sequencer
	// SessionKey orders the mutations of this cart against other requests of
	// the same session.
	SessionKey string
	Pricing    domain.PricingPolicy
	// LookupConcurrency bounds parallel product lookups for guest lines.
	LookupConcurrency int
}

// CartService reconciles the guest cart kept in session storage with the
// server cart of the signed-in user. The identity state picks which one is
// authoritative.
//
// Guest lines left behind by a failed merge stay in storage and are merged
// again by RetryMerge or the next authenticated Load.
type CartService struct {
	identity   AuthStateReader
	api        ports.CartAPI
	guest      ports.GuestCartStore
	products   ports.ProductLookup
	seq        Sequencer
	key        string
	pricing    domain.PricingPolicy
	lookupSize int
	logger     zerolog.Logger
}

func NewCartService(d CartDeps, logger zerolog.Logger) *CartService {
	if d.LookupConcurrency <= 0 {
		d.LookupConcurrency = defaultLookupConcurrency
	}
	return &CartService{
		identity:   d.Identity,
		api:        d.API,
		guest:      d.Guest,
		products:   d.Products,
		seq:        d.Seq,
		key:        d.SessionKey,
		pricing:    d.Pricing,
		lookupSize: d.LookupConcurrency,
		logger:     logger,
	}
}

// OnTransition merges the guest cart when a user signs in or registers.
// Restored sessions are never merged here.
func (s *CartService) OnTransition(ctx context.Context, t domain.Transition) {
	if !t.SignedIn() || (t.Cause != domain.CauseLogin && t.Cause != domain.CauseRegister) {
		return
	}
	err := s.seq.Do(ctx, s.key, func(ctx context.Context) error {
		_, err := s.merge(ctx)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("cause", string(t.Cause)).Msg("guest cart merge deferred")
	}
}

func (s *CartService) Load(ctx context.Context) (*domain.CartView, error) {
	return s.sequenced(ctx, func(ctx context.Context) (*domain.CartView, error) {
		if !s.authenticated() {
			return s.guestView(ctx)
		}
		warnings, mergeErr := s.merge(ctx)
		cart, err := s.api.Cart(ctx)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		return s.serverView(cart, warnings, mergeErr != nil), nil
	})
}

func (s *CartService) Add(ctx context.Context, productID int64, qty int) (*domain.CartView, error) {
	if !s.authenticated() && qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return s.sequenced(ctx, func(ctx context.Context) (*domain.CartView, error) {
		if !s.authenticated() {
			return s.mutateGuest(ctx, "add", func(lines []domain.GuestLine) []domain.GuestLine {
				return domain.AddGuestLine(lines, productID, qty)
			})
		}
		return s.mutateServer(ctx, "add", func(ctx context.Context) (*domain.ServerCart, error) {
			return s.api.Add(ctx, productID, qty)
		})
	})
}

// UpdateQuantity sets the quantity of a line. On the guest cart a quantity of
// zero or less removes the line; server quantities are passed through as given.
func (s *CartService) UpdateQuantity(ctx context.Context, ref domain.LineRef, qty int) (*domain.CartView, error) {
	if err := s.checkRef(ref); err != nil {
		return nil, err
	}
	return s.sequenced(ctx, func(ctx context.Context) (*domain.CartView, error) {
		if ref.Kind == domain.LineGuest {
			return s.mutateGuest(ctx, "update", func(lines []domain.GuestLine) []domain.GuestLine {
				return domain.SetGuestQuantity(lines, ref.ProductID, qty)
			})
		}
		return s.mutateServer(ctx, "update", func(ctx context.Context) (*domain.ServerCart, error) {
			return s.api.Update(ctx, ref.LineID, qty)
		})
	})
}

func (s *CartService) Remove(ctx context.Context, ref domain.LineRef) (*domain.CartView, error) {
	if err := s.checkRef(ref); err != nil {
		return nil, err
	}
	return s.sequenced(ctx, func(ctx context.Context) (*domain.CartView, error) {
		if ref.Kind == domain.LineGuest {
			return s.mutateGuest(ctx, "remove", func(lines []domain.GuestLine) []domain.GuestLine {
				return domain.RemoveGuestLine(lines, ref.ProductID)
			})
		}
		return s.mutateServer(ctx, "remove", func(ctx context.Context) (*domain.ServerCart, error) {
			return s.api.Remove(ctx, ref.LineID)
		})
	})
}

func (s *CartService) Clear(ctx context.Context) (*domain.CartView, error) {
	return s.sequenced(ctx, func(ctx context.Context) (*domain.CartView, error) {
		if !s.authenticated() {
			return s.mutateGuest(ctx, "clear", func([]domain.GuestLine) []domain.GuestLine { return nil })
		}
		return s.mutateServer(ctx, "clear", s.api.Clear)
	})
}

// Count is the server total_items when signed in, else the sum of guest
// quantities.
func (s *CartService) Count(ctx context.Context) (int, error) {
	if s.authenticated() {
		n, err := s.api.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("cart count: %w", err)
		}
		return n, nil
	}
	lines, err := s.guest.GuestLines(ctx)
	if err != nil {
		return 0, fmt.Errorf("cart count: %w", err)
	}
	return domain.GuestCount(lines), nil
}

// RetryMerge merges guest lines left over by an earlier failed merge and
// returns the resulting server cart. The error of a failed retry is returned.
func (s *CartService) RetryMerge(ctx context.Context) (*domain.CartView, error) {
	if !s.authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	return s.sequenced(ctx, func(ctx context.Context) (*domain.CartView, error) {
		warnings, err := s.merge(ctx)
		if err != nil {
			return nil, err
		}
		cart, err := s.api.Cart(ctx)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		return s.serverView(cart, warnings, false), nil
	})
}

// merge submits the guest lines to the server cart and clears them once the
// backend confirmed. An empty guest cart makes no call. On failure the lines
// stay in storage.
func (s *CartService) merge(ctx context.Context) ([]string, error) {
	lines, err := s.guest.GuestLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if len(lines) == 0 {
		metrics.CartMergesTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	res, err := s.api.Merge(ctx, lines)
	if err != nil {
		metrics.CartMergesTotal.WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).Int("lines", len(lines)).Msg("guest cart merge failed, keeping lines")
		return nil, fmt.Errorf("merge: %w", err)
	}
	metrics.CartMergesTotal.WithLabelValues("ok").Inc()

	if err := s.guest.ClearGuestLines(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear merged guest cart")
	}
	if len(res.Errors) > 0 {
		s.logger.Info().Strs("warnings", res.Errors).Msg("guest cart merged with warnings")
	}
	return res.Errors, nil
}

func (s *CartService) mutateGuest(ctx context.Context, op string, apply func([]domain.GuestLine) []domain.GuestLine) (*domain.CartView, error) {
	lines, err := s.guest.GuestLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s guest line: %w", op, err)
	}
	lines = apply(lines)
	if err := s.guest.SaveGuestLines(ctx, lines); err != nil {
		return nil, fmt.Errorf("%s guest line: %w", op, err)
	}
	metrics.CartMutationsTotal.WithLabelValues(string(domain.LineGuest), op).Inc()
	return s.viewOf(ctx, lines), nil
}

func (s *CartService) mutateServer(ctx context.Context, op string, call func(ctx context.Context) (*domain.ServerCart, error)) (*domain.CartView, error) {
	cart, err := call(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s cart line: %w", op, err)
	}
	metrics.CartMutationsTotal.WithLabelValues(string(domain.LineServer), op).Inc()
	return s.serverView(cart, nil, s.hasGuestLines(ctx)), nil
}

func (s *CartService) guestView(ctx context.Context) (*domain.CartView, error) {
	lines, err := s.guest.GuestLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load guest cart: %w", err)
	}
	return s.viewOf(ctx, lines), nil
}

// viewOf prices guest lines by looking up each product. A failed lookup keeps
// the line without a product.
func (s *CartService) viewOf(ctx context.Context, lines []domain.GuestLine) *domain.CartView {
	var (
		mu       sync.Mutex
		products = make(map[int64]*domain.Product, len(lines))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.lookupSize)
	for _, l := range lines {
		productID := l.ProductID
		g.Go(func() error {
			p, err := s.products.Product(gctx, productID)
			if err != nil {
				metrics.ProductLookupFailuresTotal.Inc()
				s.logger.Warn().Err(err).Int64("product_id", productID).Msg("product lookup failed")
				return nil
			}
			mu.Lock()
			products[productID] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	view := domain.GuestView(lines, products, s.pricing)
	return &view
}

func (s *CartService) serverView(cart *domain.ServerCart, warnings []string, pending bool) *domain.CartView {
	view := domain.ServerView(cart, s.pricing)
	view.Warnings = warnings
	view.PendingMerge = pending
	return &view
}

func (s *CartService) hasGuestLines(ctx context.Context) bool {
	lines, err := s.guest.GuestLines(ctx)
	return err == nil && len(lines) > 0
}

// checkRef rejects a line reference of the representation that is not active.
func (s *CartService) checkRef(ref domain.LineRef) error {
	want := domain.LineGuest
	if s.authenticated() {
		want = domain.LineServer
	}
	if ref.Kind != want {
		return fmt.Errorf("%w: got %s line, cart is %s", domain.ErrLineRefMismatch, ref.Kind, want)
	}
	return nil
}

func (s *CartService) authenticated() bool {
	return s.identity.State().IsAuthenticated()
}

func (s *CartService) sequenced(ctx context.Context, fn func(ctx context.Context) (*domain.CartView, error)) (*domain.CartView, error) {
	var view *domain.CartView
	err := s.seq.Do(ctx, s.key, func(ctx context.Context) error {
		v, err := fn(ctx)
		view = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
