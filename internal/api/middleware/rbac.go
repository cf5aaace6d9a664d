package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
)

// RBAC admits visitors whose role, as set by Session, is one of allowed.
// Anonymous visitors have no role and are always refused.
func RBAC(allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			if role == "" || !slices.Contains(allowed, domain.Role(role)) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
			}
			return next(c)
		}
	}
}
