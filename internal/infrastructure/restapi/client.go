// Package restapi talks to the storefront REST backend on behalf of one
// session. Client signs requests with the session's access credential and
// recovers once from a rejected one; the typed adapters in this package map
// backend endpoints onto the core ports.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/99minutos/storefront/internal/api/metrics"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

const refreshPath = "accounts/refresh/"

// errNoRefreshCredential is reported when a refresh is needed but the session
// holds no refresh credential.
var errNoRefreshCredential = errors.New("no refresh credential")

// refreshFailure marks errors that make the session unrecoverable.
type refreshFailure struct{ err error }

func (f *refreshFailure) Error() string { return "refresh: " + f.err.Error() }
func (f *refreshFailure) Unwrap() error { return f.err }

// Request describes one backend call. Path is relative to the base URL, keeps
// the backend's trailing slash and is already escaped; build caller-supplied
// segments with segment.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	SkipAuth bool
}

// Client is the session client of one session.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     ports.TokenStore
	group      *singleflight.Group
	sessionKey string
	log        zerolog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	onExpired []func(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRefreshGroup shares refresh coalescing across clients built for the same
// session key.
func WithRefreshGroup(g *singleflight.Group, sessionKey string) Option {
	return func(c *Client) {
		c.group = g
		c.sessionKey = sessionKey
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithClock overrides the clock used for access credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewHTTPClient returns an HTTP client whose transport is traced with OpenTelemetry.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// New builds a Client for baseURL (e.g. "http://localhost:8000/api").
func New(baseURL string, tokens ports.TokenStore, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL:    u,
		httpClient: NewHTTPClient(30 * time.Second),
		tokens:     tokens,
		group:      &singleflight.Group{},
		sessionKey: "default",
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnSessionExpired registers fn to run after the session was cleared because
// its refresh credential could not be exchanged.
func (c *Client) OnSessionExpired(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onExpired = append(c.onExpired, fn)
	c.mu.Unlock()
}

// Do performs r and decodes a 2xx JSON answer into out (which may be nil).
//
// Authenticated requests refresh the access credential at most once: before
// sending when none usable is stored, or after a 401 answer. A refresh that
// fails clears the session and yields domain.ErrSessionExpired.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	}()

	var payload []byte
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", r.Method, r.Path, err)
		}
		payload = b
	}

	if r.SkipAuth {
		status, body, err := c.send(ctx, r, payload, "")
		if err != nil {
			return err
		}
		return decodeResponse(status, body, out)
	}

	refreshed := false
	access, err := c.usableAccess(ctx)
	if err != nil {
		return err
	}
	if access == "" {
		if access, err = c.refresh(ctx, ""); err != nil {
			return err
		}
		refreshed = true
	}

	status, body, err := c.send(ctx, r, payload, access)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && !refreshed {
		if access, err = c.refresh(ctx, access); err != nil {
			return err
		}
		if status, body, err = c.send(ctx, r, payload, access); err != nil {
			return err
		}
	}
	return decodeResponse(status, body, out)
}

// Refresh exchanges the stored refresh credential for a new access credential
// and returns it.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	pair, err := c.tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	stale := ""
	if pair != nil {
		stale = pair.Access
	}
	return c.refresh(ctx, stale)
}

func (c *Client) send(ctx context.Context, r Request, payload []byte, access string) (int, []byte, error) {
	ref, err := url.Parse(strings.TrimLeft(r.Path, "/"))
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: parse path: %w", r.Method, r.Path, err)
	}
	if len(r.Query) > 0 {
		ref.RawQuery = r.Query.Encode()
	}
	target := c.baseURL.ResolveReference(ref)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: new request: %w", r.Method, r.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(r.Method, "error").Inc()
		return 0, nil, fmt.Errorf("%s %s: %w", r.Method, r.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read body: %w", r.Method, r.Path, err)
	}
	metrics.BackendRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debug().Str("method", r.Method).Str("path", r.Path).Int("status", resp.StatusCode).Msg("backend request")
	return resp.StatusCode, data, nil
}

func decodeResponse(status int, body []byte, out any) error {
	if status < 200 || status >= 300 {
		return decodeError(status, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// usableAccess returns the stored access credential, or "" when it is missing
// or its exp claim has passed.
func (c *Client) usableAccess(ctx context.Context) (string, error) {
	pair, err := c.tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	if pair == nil || pair.Access == "" || c.expired(pair.Access) {
		return "", nil
	}
	return pair.Access, nil
}

// expired reads the exp claim without verifying the signature. Tokens that
// are not JWTs or carry no exp are left for the backend to judge.
func (c *Client) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !c.now().Before(exp.Time)
}

// refresh obtains a fresh access credential, coalescing concurrent calls for
// the same session. stale is the credential the caller saw rejected (or "" when
// it had none); if the store already holds a different, unexpired one, it is
// returned without contacting the backend.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	ch := c.group.DoChan(c.sessionKey, func() (any, error) {
		// The exchange outlives a cancelled caller so waiters still get a result.
		flightCtx := context.WithoutCancel(ctx)
		access, err := c.exchange(flightCtx, stale)
		var rf *refreshFailure
		if errors.As(err, &rf) {
			c.expire(flightCtx, rf.err)
		}
		return access, err
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(string), nil
		}
		var rf *refreshFailure
		if !errors.As(res.Err, &rf) {
			return "", res.Err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrSessionExpired, rf.err)
	}
}

func (c *Client) exchange(ctx context.Context, stale string) (string, error) {
	pair, err := c.tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	if pair != nil && pair.Access != "" && pair.Access != stale && !c.expired(pair.Access) {
		metrics.TokenRefreshesTotal.WithLabelValues("reused").Inc()
		return pair.Access, nil
	}
	if !pair.HasRefresh() {
		return "", &refreshFailure{err: errNoRefreshCredential}
	}

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	status, body, err := c.send(ctx, Request{Method: http.MethodPost, Path: refreshPath}, mustJSON(map[string]string{"refresh": pair.Refresh}), "")
	if err == nil {
		err = decodeResponse(status, body, &resp)
	}
	if err == nil && resp.Access == "" {
		err = errors.New("refresh response carried no access credential")
	}
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("rejected").Inc()
		return "", &refreshFailure{err: err}
	}

	next := domain.CredentialPair{Access: resp.Access, Refresh: pair.Refresh}
	if resp.Refresh != "" {
		next.Refresh = resp.Refresh
	}
	if err := c.tokens.Set(ctx, next); err != nil {
		return "", fmt.Errorf("store refreshed credentials: %w", err)
	}
	metrics.TokenRefreshesTotal.WithLabelValues("ok").Inc()
	return next.Access, nil
}

func (c *Client) expire(ctx context.Context, cause error) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to clear credentials after refresh failure")
	}
	metrics.SessionExpiriesTotal.Inc()
	c.log.Info().Err(cause).Str("session", c.sessionKey).Msg("session expired")

	c.mu.RLock()
	hooks := append([]func(context.Context){}, c.onExpired...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// segment escapes one caller-supplied path segment. Dot segments are encoded
// so reference resolution cannot climb out of the endpoint.
func segment(s string) string {
	esc := url.PathEscape(s)
	if s == "." || s == ".." {
		esc = strings.ReplaceAll(esc, ".", "%2E")
	}
	return esc
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
