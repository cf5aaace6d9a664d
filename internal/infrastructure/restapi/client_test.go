package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/storefront/internal/core/domain"
)

// memTokens is an in-memory TokenStore.
type memTokens struct {
	mu      sync.Mutex
	pair    *domain.CredentialPair
	cleared int
}

func (m *memTokens) Get(context.Context) (*domain.CredentialPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair == nil {
		return nil, nil
	}
	p := *m.pair
	return &p, nil
}

func (m *memTokens) Set(_ context.Context, p domain.CredentialPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = &p
	return nil
}

func (m *memTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = nil
	m.cleared++
	return nil
}

var testSecret = []byte("test-secret")

func mintToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return tok
}

// fakeBackend issues a new access token on every refresh and accepts only the
// latest one on the protected endpoint.
type fakeBackend struct {
	t             *testing.T
	mu            sync.Mutex
	valid         string
	refreshCalls  atomic.Int32
	cartCalls     atomic.Int32
	rejectRefresh bool
	alwaysReject  bool
	refreshDelay  time.Duration
	refreshGate   chan struct{}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/refresh/", func(w http.ResponseWriter, r *http.Request) {
		n := b.refreshCalls.Add(1)
		if b.refreshGate != nil {
			<-b.refreshGate
		}
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}
		if b.rejectRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired","code":"token_not_valid"}`))
			return
		}
		access := mintToken(b.t, fmt.Sprintf("refresh-%d", n), time.Now().Add(time.Hour))
		b.mu.Lock()
		b.valid = access
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"access": access})
	})
	mux.HandleFunc("/api/cart/", func(w http.ResponseWriter, r *http.Request) {
		b.cartCalls.Add(1)
		b.mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+b.valid
		b.mu.Unlock()
		if !ok || b.alwaysReject {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"items":[],"total_items":0,"subtotal":"0.00"}`))
	})
	mux.HandleFunc("/api/products/featured/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			b.t.Errorf("public request carried credentials")
		}
		_, _ = w.Write([]byte(`[]`))
	})
	return mux
}

func newTestClient(t *testing.T, b *fakeBackend, tokens *memTokens, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api", tokens, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestRefresh_TwiceYieldsDistinctValidTokens(t *testing.T) {
	b := &fakeBackend{t: t}
	tokens := &memTokens{pair: &domain.CredentialPair{Refresh: "r1"}}
	c := newTestClient(t, b, tokens)

	first, err := c.Refresh(context.Background())
	require.NoError(t, err)
	second, err := c.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, int32(2), b.refreshCalls.Load())
	stored, _ := tokens.Get(context.Background())
	assert.Equal(t, second, stored.Access)
	assert.Equal(t, "r1", stored.Refresh, "refresh credential kept when not rotated")
}

func TestDo_RefreshesOnceOn401AndRetries(t *testing.T) {
	b := &fakeBackend{t: t, valid: "nobody-has-this"}
	stale := mintToken(t, "stale", time.Now().Add(time.Hour))
	tokens := &memTokens{pair: &domain.CredentialPair{Access: stale, Refresh: "r1"}}
	c := newTestClient(t, b, tokens)

	var cart cartDTO
	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "cart/"}, &cart)

	require.NoError(t, err)
	assert.Equal(t, int64(1), cart.ID)
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(2), b.cartCalls.Load())
}

func TestDo_Repeated401RefreshesExactlyOnce(t *testing.T) {
	b := &fakeBackend{t: t, alwaysReject: true}
	tokens := &memTokens{pair: &domain.CredentialPair{Access: mintToken(t, "a", time.Now().Add(time.Hour)), Refresh: "r1"}}
	c := newTestClient(t, b, tokens)

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "cart/"}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRequestFailed))
	assert.False(t, errors.Is(err, domain.ErrSessionExpired))
	assert.Equal(t, http.StatusUnauthorized, domain.StatusOf(err))
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(2), b.cartCalls.Load())
	assert.Zero(t, tokens.cleared, "a failed retry must not clear the session")
}

func TestDo_RefreshRejectedExpiresSession(t *testing.T) {
	b := &fakeBackend{t: t, rejectRefresh: true}
	tokens := &memTokens{pair: &domain.CredentialPair{Access: mintToken(t, "a", time.Now().Add(time.Hour)), Refresh: "r1"}}
	c := newTestClient(t, b, tokens)

	var hooks atomic.Int32
	c.OnSessionExpired(func(context.Context) { hooks.Add(1) })

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "cart/"}, nil)

	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, int32(1), hooks.Load())
	assert.Equal(t, 1, tokens.cleared)
	pair, _ := tokens.Get(context.Background())
	assert.Nil(t, pair)
}

func TestDo_NoCredentialsExpiresSession(t *testing.T) {
	b := &fakeBackend{t: t}
	tokens := &memTokens{}
	c := newTestClient(t, b, tokens)

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "cart/"}, nil)

	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Zero(t, b.refreshCalls.Load())
	assert.Zero(t, b.cartCalls.Load())
}

func TestDo_ExpiredAccessRefreshesBeforeSending(t *testing.T) {
	b := &fakeBackend{t: t}
	access := mintToken(t, "old", time.Now().Add(time.Hour))
	b.valid = access
	tokens := &memTokens{pair: &domain.CredentialPair{Access: access, Refresh: "r1"}}
	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	c := newTestClient(t, b, tokens, WithClock(later))

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "cart/"}, nil)

	require.NoError(t, err)
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(1), b.cartCalls.Load(), "no request is sent with the expired credential")
}

func TestDo_PreflightRefreshConsumesBudget(t *testing.T) {
	b := &fakeBackend{t: t, alwaysReject: true}
	tokens := &memTokens{pair: &domain.CredentialPair{Refresh: "r1"}}
	c := newTestClient(t, b, tokens)

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "cart/"}, nil)

	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(1), b.cartCalls.Load())
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	b := &fakeBackend{t: t, valid: "nobody-has-this", refreshDelay: 50 * time.Millisecond}
	tokens := &memTokens{pair: &domain.CredentialPair{Access: mintToken(t, "stale", time.Now().Add(time.Hour)), Refresh: "r1"}}
	c := newTestClient(t, b, tokens)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Do(context.Background(), Request{Method: http.MethodGet, Path: "cart/"}, nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestDo_CancelDuringRefreshKeepsSession(t *testing.T) {
	gate := make(chan struct{})
	b := &fakeBackend{t: t, refreshGate: gate}
	tokens := &memTokens{pair: &domain.CredentialPair{Refresh: "r1"}}
	c := newTestClient(t, b, tokens)
	t.Cleanup(func() { close(gate) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Do(ctx, Request{Method: http.MethodGet, Path: "cart/"}, nil)
	}()

	require.Eventually(t, func() bool { return b.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrSessionExpired))
	assert.Zero(t, tokens.cleared)
}

func TestDo_SkipAuthSendsNoCredentials(t *testing.T) {
	b := &fakeBackend{t: t}
	tokens := &memTokens{pair: &domain.CredentialPair{Access: "a", Refresh: "r"}}
	c := newTestClient(t, b, tokens)

	var out listOf[productDTO]
	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "products/featured/", SkipAuth: true}, &out)

	require.NoError(t, err)
	assert.Zero(t, b.refreshCalls.Load())
}

func TestExpired_IgnoresOpaqueTokens(t *testing.T) {
	c := &Client{now: time.Now}
	assert.False(t, c.expired("not-a-jwt"))
	assert.True(t, c.expired(mintToken(t, "x", time.Now().Add(-time.Second))))
	assert.False(t, c.expired(mintToken(t, "x", time.Now().Add(time.Minute))))
}
