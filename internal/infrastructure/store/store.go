// Package store persists the durable client-side state of a session: the
// credential pair, the cached identity and the guest cart. Values live under
// four independent keys in a Backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/core/domain"
)

// Storage keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyGuestCart    = "guest_cart"
)

// ErrNotFound is returned by a Backend for a key that holds no value.
var ErrNotFound = errors.New("store: key not found")

// Backend is a flat key-value space scoped to one session.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Session implements ports.SessionStorage over a Backend.
type Session struct {
	b   Backend
	log zerolog.Logger
}

// NewSession wraps b.
func NewSession(b Backend, log zerolog.Logger) *Session {
	return &Session{b: b, log: log}
}

func (s *Session) Get(ctx context.Context) (*domain.CredentialPair, error) {
	access, err := s.getString(ctx, KeyAccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.getString(ctx, KeyRefreshToken)
	if err != nil {
		return nil, err
	}
	if access == "" && refresh == "" {
		return nil, nil
	}
	return &domain.CredentialPair{Access: access, Refresh: refresh}, nil
}

func (s *Session) Set(ctx context.Context, pair domain.CredentialPair) error {
	if err := s.setOrDelete(ctx, KeyAccessToken, pair.Access); err != nil {
		return err
	}
	return s.setOrDelete(ctx, KeyRefreshToken, pair.Refresh)
}

func (s *Session) Clear(ctx context.Context) error {
	if err := s.b.Delete(ctx, KeyAccessToken, KeyRefreshToken); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *Session) Identity(ctx context.Context) (*domain.Identity, error) {
	raw, err := s.b.Get(ctx, KeyUser)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable cached identity")
		return nil, nil
	}
	return &id, nil
}

func (s *Session) SaveIdentity(ctx context.Context, id *domain.Identity) error {
	if id == nil {
		return s.ClearIdentity(ctx)
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.b.Set(ctx, KeyUser, raw); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *Session) ClearIdentity(ctx context.Context) error {
	if err := s.b.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// GuestLines returns the stored guest cart. An unreadable value counts as an
// empty cart.
func (s *Session) GuestLines(ctx context.Context) ([]domain.GuestLine, error) {
	raw, err := s.b.Get(ctx, KeyGuestCart)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guest cart: %w", err)
	}
	var lines []domain.GuestLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable guest cart")
		return nil, nil
	}
	return lines, nil
}

func (s *Session) SaveGuestLines(ctx context.Context, lines []domain.GuestLine) error {
	if len(lines) == 0 {
		return s.ClearGuestLines(ctx)
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	if err := s.b.Set(ctx, KeyGuestCart, raw); err != nil {
		return fmt.Errorf("save guest cart: %w", err)
	}
	return nil
}

func (s *Session) ClearGuestLines(ctx context.Context) error {
	if err := s.b.Delete(ctx, KeyGuestCart); err != nil {
		return fmt.Errorf("clear guest cart: %w", err)
	}
	return nil
}

func (s *Session) getString(ctx context.Context, key string) (string, error) {
	raw, err := s.b.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return string(raw), nil
}

func (s *Session) setOrDelete(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		err = s.b.Delete(ctx, key)
	} else {
		err = s.b.Set(ctx, key, []byte(value))
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
