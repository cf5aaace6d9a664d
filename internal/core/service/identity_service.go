package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/api/metrics"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// IdentityService is the identity state machine of one session. It owns the
// credential pair and the cached identity; listeners observe every state change.
type IdentityService struct {
	auth   ports.AuthAPI
	tokens ports.TokenStore
	cache  ports.IdentityCache
	logger zerolog.Logger

	mu    sync.RWMutex
	state domain.AuthState

	lmu       sync.Mutex
	listeners []ports.TransitionListener
}

func NewIdentityService(auth ports.AuthAPI, tokens ports.TokenStore, cache ports.IdentityCache, logger zerolog.Logger) *IdentityService {
	return &IdentityService{
		auth:   auth,
		tokens: tokens,
		cache:  cache,
		logger: logger,
		state:  domain.Anonymous(),
	}
}

func (s *IdentityService) State() domain.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers l for every later transition. Listeners run
// synchronously in registration order.
func (s *IdentityService) Subscribe(l ports.TransitionListener) {
	s.lmu.Lock()
	s.listeners = append(s.listeners, l)
	s.lmu.Unlock()
}

// Restore adopts the stored session optimistically: a stored credential pair
// plus a cached identity make the session Authenticated without contacting the
// backend. Storage failures leave the session Anonymous.
func (s *IdentityService) Restore(ctx context.Context) domain.AuthState {
	pair, err := s.tokens.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read stored credentials")
		return s.State()
	}
	if pair.IsZero() {
		return s.State()
	}
	id, err := s.cache.Identity(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read cached identity")
		return s.State()
	}
	if id == nil {
		return s.State()
	}
	s.transition(ctx, domain.Authenticated(id), domain.CauseRestore)
	return s.State()
}

// Verify confirms the stored session against the profile endpoint. A session
// the backend no longer accepts is cleared. Without stored credentials it does
// nothing.
func (s *IdentityService) Verify(ctx context.Context) error {
	pair, err := s.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("verify session: %w", err)
	}
	if pair.IsZero() {
		return nil
	}

	id, err := s.auth.Profile(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Info().Err(err).Msg("stored session rejected, signing out")
		s.clearLocal(ctx)
		s.transition(ctx, domain.Anonymous(), domain.CauseVerifyFailed)
		return fmt.Errorf("verify session: %w", err)
	}

	if err := s.cache.SaveIdentity(ctx, id); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache identity")
	}
	s.transition(ctx, domain.Authenticated(id), domain.CauseRestore)
	return nil
}

// Start restores the session and verifies it in the background. The returned
// channel yields the verification result.
func (s *IdentityService) Start(ctx context.Context) (domain.AuthState, <-chan error) {
	state := s.Restore(ctx)
	done := make(chan error, 1)
	go func() {
		done <- s.Verify(ctx)
	}()
	return state, done
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	pair, id, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.signIn(ctx, pair, id, domain.CauseLogin); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", id.ID).Str("role", string(id.Role)).Msg("signed in")
	return id, nil
}

func (s *IdentityService) Register(ctx context.Context, in domain.RegisterInput) (*domain.Identity, error) {
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}
	if in.Role != domain.RoleCustomer && in.Role != domain.RoleVendor {
		return nil, &domain.ValidationError{RequestError: &domain.RequestError{
			Status:  400,
			Message: "Invalid role.",
			Fields:  map[string][]string{"role": {"Invalid role."}},
		}}
	}
	pair, id, err := s.auth.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.signIn(ctx, pair, id, domain.CauseRegister); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", id.ID).Str("role", string(id.Role)).Msg("registered")
	return id, nil
}

// Logout tells the backend to revoke the refresh credential and always clears
// the local session, whatever the backend answers.
func (s *IdentityService) Logout(ctx context.Context) error {
	pair, err := s.tokens.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read credentials for logout")
	}
	if pair.HasRefresh() {
		if err := s.auth.Logout(ctx, pair.Refresh); err != nil {
			s.logger.Warn().Err(err).Msg("server logout failed")
		}
	}
	s.clearLocal(ctx)
	s.transition(ctx, domain.Anonymous(), domain.CauseLogout)
	return nil
}

// RefreshIdentity re-reads the profile and updates the cache without changing
// the authentication state.
func (s *IdentityService) RefreshIdentity(ctx context.Context) (*domain.Identity, error) {
	if !s.State().IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	id, err := s.auth.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh identity: %w", err)
	}
	if err := s.cache.SaveIdentity(ctx, id); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache identity")
	}

	s.mu.Lock()
	if s.state.IsAuthenticated() {
		s.state = domain.Authenticated(id)
	}
	s.mu.Unlock()
	return id, nil
}

func (s *IdentityService) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.Identity, error) {
	if !s.State().IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	if err := s.auth.UpdateProfile(ctx, in); err != nil {
		return nil, err
	}
	return s.RefreshIdentity(ctx)
}

func (s *IdentityService) ChangePassword(ctx context.Context, in domain.PasswordChange) error {
	if !s.State().IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	return s.auth.ChangePassword(ctx, in)
}

// Expire moves the session to Anonymous after the session client gave up on
// refreshing. Credentials are already cleared by then; the cached identity is
// cleared here.
func (s *IdentityService) Expire(ctx context.Context) {
	if err := s.cache.ClearIdentity(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear cached identity")
	}
	s.transition(ctx, domain.Anonymous(), domain.CauseExpired)
}

func (s *IdentityService) signIn(ctx context.Context, pair *domain.CredentialPair, id *domain.Identity, cause domain.TransitionCause) error {
	if pair.IsZero() || id == nil {
		return fmt.Errorf("%s: backend answered without credentials", cause)
	}
	if err := s.tokens.Set(ctx, *pair); err != nil {
		return fmt.Errorf("%s: store credentials: %w", cause, err)
	}
	if err := s.cache.SaveIdentity(ctx, id); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache identity")
	}
	s.transition(ctx, domain.Authenticated(id), cause)
	return nil
}

func (s *IdentityService) clearLocal(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear credentials")
	}
	if err := s.cache.ClearIdentity(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear cached identity")
	}
}

// transition swaps the state and notifies listeners outside the lock.
// Anonymous to Anonymous is not a transition.
func (s *IdentityService) transition(ctx context.Context, to domain.AuthState, cause domain.TransitionCause) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	if !from.IsAuthenticated() && !to.IsAuthenticated() {
		return
	}
	metrics.IdentityTransitionsTotal.WithLabelValues(string(cause)).Inc()

	s.lmu.Lock()
	listeners := append([]ports.TransitionListener(nil), s.listeners...)
	s.lmu.Unlock()

	t := domain.Transition{From: from, To: to, Cause: cause}
	for _, l := range listeners {
		l(ctx, t)
	}
}
