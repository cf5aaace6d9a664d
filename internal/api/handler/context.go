package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/api/middleware"
	"github.com/99minutos/storefront/internal/app"
)

// sessionOf returns the visitor session injected by the Session middleware.
func sessionOf(c echo.Context) (*app.Session, error) {
	s, _ := c.Get(middleware.SessionKey).(*app.Session)
	if s == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return s, nil
}

// bindValid binds the request body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
