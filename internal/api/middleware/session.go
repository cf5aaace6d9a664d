package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/app"
)

// Context keys set by Session.
const (
	SessionKey = "session"
	RoleKey    = "role"
)

// SessionOpener builds the session stored under a key.
type SessionOpener interface {
	Open(ctx context.Context, key string) (*app.Session, error)
}

// CookieSettings describes the visitor session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Session identifies the visitor by cookie, issuing a fresh random id when the
// cookie is missing or malformed, and injects the visitor's session and role
// into the context.
func Session(opener SessionOpener, cs CookieSettings) echo.MiddlewareFunc {
	if cs.Name == "" {
		cs.Name = "sf_session"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := ""
			if ck, err := c.Cookie(cs.Name); err == nil {
				if id, err := uuid.Parse(ck.Value); err == nil {
					key = id.String()
				}
			}
			if key == "" {
				key = uuid.NewString()
			}
			// The cookie is re-issued on every request so its lifetime slides
			// with the stored session.
			c.SetCookie(&http.Cookie{
				Name:     cs.Name,
				Value:    key,
				Path:     "/",
				HttpOnly: true,
				Secure:   cs.Secure,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(cs.MaxAge.Seconds()),
			})

			s, err := opener.Open(c.Request().Context(), key)
			if err != nil {
				return err
			}
			c.Set(SessionKey, s)
			if id := s.Identity.State().Identity; id != nil {
				c.Set(RoleKey, string(id.Role))
			}
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous visitors.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := c.Get(RoleKey).(string); role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
