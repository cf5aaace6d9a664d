package restapi

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// BreakerSettings tunes the product lookup circuit breaker.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// BreakerLookup guards single-product lookups with a circuit breaker so a
// failing catalog fails fast. Client errors (4xx) and lookups abandoned by the
// caller do not count as failures.
type BreakerLookup struct {
	next ports.ProductLookup
	cb   *gobreaker.CircuitBreaker[*domain.Product]
}

func NewBreakerLookup(next ports.ProductLookup, s BreakerSettings, log zerolog.Logger) *BreakerLookup {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[*domain.Product](gobreaker.Settings{
		Name:    "product-lookup",
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			var ab *abandonedError
			if err == nil || errors.As(err, &ab) {
				return true
			}
			status := domain.StatusOf(err)
			return status >= 400 && status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &BreakerLookup{next: next, cb: cb}
}

func (b *BreakerLookup) Product(ctx context.Context, id int64) (*domain.Product, error) {
	return b.cb.Execute(func() (*domain.Product, error) {
		p, err := b.next.Product(ctx, id)
		if err != nil && ctx.Err() != nil {
			return nil, &abandonedError{err: err}
		}
		return p, err
	})
}

// abandonedError marks a lookup that failed because its caller went away.
type abandonedError struct{ err error }

func (e *abandonedError) Error() string { return e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }
