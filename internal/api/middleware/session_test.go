package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/app"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

type stubIdentity struct {
	ports.IdentityService
	state domain.AuthState
}

func (s stubIdentity) State() domain.AuthState { return s.state }

type stubOpener struct {
	keys  []string
	state domain.AuthState
}

func (o *stubOpener) Open(_ context.Context, key string) (*app.Session, error) {
	o.keys = append(o.keys, key)
	return &app.Session{Key: key, Identity: stubIdentity{state: o.state}}, nil
}

func runSession(t *testing.T, opener *stubOpener, req *http.Request) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var seen echo.Context
	h := Session(opener, CookieSettings{Name: "sid", MaxAge: time.Hour})(func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusNoContent)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, seen
}

func TestSession_IssuesCookieForNewVisitor(t *testing.T) {
	opener := &stubOpener{}
	rec, c := runSession(t, opener, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || !cookies[0].HttpOnly {
		t.Fatalf("expected one http-only session cookie, got %+v", cookies)
	}
	if _, err := uuid.Parse(cookies[0].Value); err != nil {
		t.Fatalf("session id is not a uuid: %q", cookies[0].Value)
	}
	if len(opener.keys) != 1 || opener.keys[0] != cookies[0].Value {
		t.Fatalf("session opened under %v, cookie %q", opener.keys, cookies[0].Value)
	}
	if s, _ := c.Get(SessionKey).(*app.Session); s == nil {
		t.Fatalf("session not injected")
	}
	if role := c.Get(RoleKey); role != nil {
		t.Fatalf("anonymous visitor must carry no role, got %v", role)
	}
}

func TestSession_ReusesValidCookie(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: id})
	opener := &stubOpener{state: domain.Authenticated(&domain.Identity{ID: 1, Role: domain.RoleVendor})}

	_, c := runSession(t, opener, req)

	if opener.keys[0] != id {
		t.Fatalf("expected session %s, got %s", id, opener.keys[0])
	}
	if role, _ := c.Get(RoleKey).(string); role != "vendor" {
		t.Fatalf("expected vendor role, got %q", role)
	}
}

func TestSession_ReplacesForgedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc/passwd"})
	opener := &stubOpener{}

	runSession(t, opener, req)

	if _, err := uuid.Parse(opener.keys[0]); err != nil {
		t.Fatalf("malformed cookie must be replaced, got key %q", opener.keys[0])
	}
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	h := RequireAuth()(func(c echo.Context) error { return nil })

	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	c.Set(RoleKey, "customer")
	if err := h(c); err != nil {
		t.Fatalf("authenticated request rejected: %v", err)
	}
}
