// Package app assembles the per-session object graph shared by the hosts:
// storage, session client, identity, cart, orders and catalog.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
	"github.com/99minutos/storefront/internal/core/service"
	"github.com/99minutos/storefront/internal/infrastructure/restapi"
	"github.com/99minutos/storefront/internal/infrastructure/store"
	"github.com/99minutos/storefront/pkg/logger"
)

// BackendOpener returns the storage backend of one session.
type BackendOpener func(sessionKey string) (store.Backend, error)

// Deps configures a Factory.
type Deps struct {
	BaseURL    string
	HTTPClient *http.Client
	Backends   BackendOpener
	Seq        service.Sequencer
	Pricing    domain.PricingPolicy
	Breaker    restapi.BreakerSettings
	// LookupConcurrency bounds parallel product lookups for guest carts.
	LookupConcurrency int
	Logger            zerolog.Logger
}

// Factory builds Sessions. Refresh coalescing, the catalog and its circuit
// breaker are shared by every session it builds.
type Factory struct {
	deps    Deps
	group   *singleflight.Group
	catalog *restapi.CatalogAPI
	lookup  ports.ProductLookup
}

func NewFactory(d Deps) (*Factory, error) {
	if d.Backends == nil {
		return nil, fmt.Errorf("app: no storage backend")
	}
	if d.Pricing.TaxRate.IsZero() && d.Pricing.FlatShipping.IsZero() && d.Pricing.FreeShippingThreshold.IsZero() {
		d.Pricing = domain.DefaultPricing()
	}

	opts := []restapi.Option{restapi.WithLogger(logger.Component(d.Logger, "catalog"))}
	if d.HTTPClient != nil {
		opts = append(opts, restapi.WithHTTPClient(d.HTTPClient))
	}
	// Catalog calls never carry credentials, so its client gets throwaway storage.
	anon, err := restapi.New(d.BaseURL, store.NewSession(store.NewMemory(), d.Logger), opts...)
	if err != nil {
		return nil, err
	}
	catalog := restapi.NewCatalogAPI(anon)

	return &Factory{
		deps:    d,
		group:   &singleflight.Group{},
		catalog: catalog,
		lookup:  restapi.NewBreakerLookup(catalog, d.Breaker, logger.Component(d.Logger, "breaker")),
	}, nil
}

// Session is everything one visitor or CLI profile works with.
type Session struct {
	Key      string
	Storage  ports.SessionStorage
	Client   *restapi.Client
	Identity ports.IdentityService
	Cart     ports.CartService
	Orders   ports.OrderService
	Catalog  ports.CatalogAPI
}

// Open builds the session stored under key and restores its identity from
// storage without contacting the backend.
func (f *Factory) Open(ctx context.Context, key string) (*Session, error) {
	backend, err := f.deps.Backends(key)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}
	log := f.deps.Logger.With().Str("session", key).Logger()
	st := store.NewSession(backend, logger.Component(log, "store"))

	opts := []restapi.Option{
		restapi.WithRefreshGroup(f.group, key),
		restapi.WithLogger(logger.Component(log, "session_client")),
	}
	if f.deps.HTTPClient != nil {
		opts = append(opts, restapi.WithHTTPClient(f.deps.HTTPClient))
	}
	client, err := restapi.New(f.deps.BaseURL, st, opts...)
	if err != nil {
		return nil, err
	}

	identity := service.NewIdentityService(restapi.NewAuthAPI(client), st, st, logger.Component(log, "identity"))
	cart := service.NewCartService(service.CartDeps{
		Identity:          identity,
		API:               restapi.NewCartAPI(client),
		Guest:             st,
		Products:          f.lookup,
		Seq:               f.deps.Seq,
		SessionKey:        key,
		Pricing:           f.deps.Pricing,
		LookupConcurrency: f.deps.LookupConcurrency,
	}, logger.Component(log, "cart"))
	orders := service.NewOrderService(identity, restapi.NewOrderAPI(client), st, cart, logger.Component(log, "orders"))

	identity.Subscribe(cart.OnTransition)
	client.OnSessionExpired(identity.Expire)
	identity.Restore(ctx)

	return &Session{
		Key:      key,
		Storage:  st,
		Client:   client,
		Identity: identity,
		Cart:     cart,
		Orders:   orders,
		Catalog:  f.catalog,
	}, nil
}

// Catalog returns the shared catalog reader.
func (f *Factory) Catalog() ports.CatalogAPI { return f.catalog }
