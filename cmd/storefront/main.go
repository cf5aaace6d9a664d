// Command storefront serves the storefront backend-for-frontend: browser
// visitors are identified by cookie and their credentials, identity and guest
// cart live in server-side session storage.
//
//	@title        Storefront BFF API
//	@version      1.0
//	@description  Session-backed storefront API: identity, cart reconciliation, orders and catalog.
//	@BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/99minutos/storefront/docs"
	"github.com/99minutos/storefront/internal/api"
	"github.com/99minutos/storefront/internal/api/handler"
	"github.com/99minutos/storefront/internal/api/middleware"
	"github.com/99minutos/storefront/internal/app"
	"github.com/99minutos/storefront/internal/infrastructure/config"
	mongostore "github.com/99minutos/storefront/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/storefront/internal/infrastructure/db/redis"
	"github.com/99minutos/storefront/internal/infrastructure/queue"
	"github.com/99minutos/storefront/internal/infrastructure/restapi"
	"github.com/99minutos/storefront/internal/infrastructure/store"
	"github.com/99minutos/storefront/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "storefront"})

	backends, ready, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	pricing, err := cfg.Pricing.Policy()
	if err != nil {
		return err
	}

	seq := queue.NewSequencer(cfg.Cart.MaxRunning, logger.Component(log, "sequencer"))
	seq.Start(ctx)

	factory, err := app.NewFactory(app.Deps{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: restapi.NewHTTPClient(cfg.API.Timeout),
		Backends:   backends,
		Seq:        seq,
		Pricing:    pricing,
		Breaker: restapi.BreakerSettings{
			ConsecutiveFailures: cfg.Cart.BreakerFailures,
			OpenTimeout:         cfg.Cart.BreakerOpenFor,
		},
		LookupConcurrency: cfg.Cart.LookupConcurrency,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	e := api.NewRouter(api.RouterDeps{
		Sessions: factory,
		Catalog:  factory.Catalog(),
		Cookie: middleware.CookieSettings{
			Name:   cfg.HTTP.SessionCookie,
			Secure: cfg.HTTP.CookieSecure,
			MaxAge: cfg.Storage.SessionTTL,
		},
		Ready:  ready,
		Logger: logger.Component(log, "http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.API.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage.Driver).Msg("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStorage connects the configured session storage and returns the
// per-session backend opener, the readiness checks and a close func.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (app.BackendOpener, map[string]handler.Pinger, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		sessions, err := redisstore.Open(ctx, redisstore.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			SessionTTL: cfg.Storage.SessionTTL,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		opener := func(key string) (store.Backend, error) { return sessions.ForSession(key), nil }
		closeFn := func() {
			if err := sessions.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}
		return opener, map[string]handler.Pinger{"redis": sessions}, closeFn, nil

	case config.DriverMongo:
		sessions, err := mongostore.Open(ctx, mongostore.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			SessionTTL: cfg.Storage.SessionTTL,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		opener := func(key string) (store.Backend, error) { return sessions.ForSession(key), nil }
		closeFn := func() {
			if err := sessions.Close(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		return opener, map[string]handler.Pinger{"mongodb": sessions}, closeFn, nil

	default:
		root := cfg.Storage.Dir
		if root == "" {
			root = filepath.Join(os.TempDir(), "storefront-sessions")
		}
		opts := store.FileOptions{Passphrase: cfg.Storage.Passphrase}
		opener := func(key string) (store.Backend, error) {
			return store.OpenFile(filepath.Join(root, key), opts)
		}
		return opener, nil, func() {}, nil
	}
}
