package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// TokenStore keeps the credential pair of one session in durable storage.
type TokenStore interface {
	// Get returns the stored pair, or nil when the session holds none.
	Get(ctx context.Context) (*domain.CredentialPair, error)
	// Set replaces the stored pair.
	Set(ctx context.Context, pair domain.CredentialPair) error
	Clear(ctx context.Context) error
}

// IdentityCache keeps the last known identity so a restart can restore the
// session optimistically.
type IdentityCache interface {
	Identity(ctx context.Context) (*domain.Identity, error)
	SaveIdentity(ctx context.Context, id *domain.Identity) error
	ClearIdentity(ctx context.Context) error
}

// GuestCartStore keeps the anonymous shopper's cart lines.
type GuestCartStore interface {
	GuestLines(ctx context.Context) ([]domain.GuestLine, error)
	SaveGuestLines(ctx context.Context, lines []domain.GuestLine) error
	ClearGuestLines(ctx context.Context) error
}

// SessionStorage is the full durable key space of one session.
type SessionStorage interface {
	TokenStore
	IdentityCache
	GuestCartStore
}
