package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
)

type CartHandler struct{}

func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type countResponse struct {
	Count int `json:"count"`
}

// lineRef parses the :ref path parameter ("guest:7" or "server:12").
func lineRef(c echo.Context) (domain.LineRef, error) {
	ref, err := domain.ParseLineRef(c.Param("ref"))
	if err != nil {
		return domain.LineRef{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return ref, nil
}

// Get returns the visitor's cart. Signed-in visitors with guest lines left
// over from a failed merge get them merged first.
//
// @Summary      Get cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  domain.CartView
// @Router       /api/v1/cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	view, err := s.Cart.Load(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// AddItem adds a product to the cart.
//
// @Summary      Add to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addItemRequest  true  "Product and quantity"
// @Success      200   {object}  domain.CartView
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	view, err := s.Cart.Add(c.Request().Context(), req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateItem sets the quantity of a cart line. On a guest cart a quantity of
// zero or less removes the line.
//
// @Summary      Update cart line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        ref   path      string           true  "Line reference, guest:<product id> or server:<line id>"
// @Param        body  body      quantityRequest  true  "New quantity"
// @Success      200   {object}  domain.CartView
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/cart/items/{ref} [patch]
func (h *CartHandler) UpdateItem(c echo.Context) error {
	ref, err := lineRef(c)
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	view, err := s.Cart.UpdateQuantity(c.Request().Context(), ref, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// RemoveItem removes a cart line.
//
// @Summary      Remove cart line
// @Tags         cart
// @Produce      json
// @Param        ref  path      string  true  "Line reference"
// @Success      200  {object}  domain.CartView
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/cart/items/{ref} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	ref, err := lineRef(c)
	if err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	view, err := s.Cart.Remove(c.Request().Context(), ref)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Clear empties the cart.
//
// @Summary      Clear cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  domain.CartView
// @Router       /api/v1/cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	view, err := s.Cart.Clear(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Count returns the number of items in the cart.
//
// @Summary      Cart item count
// @Tags         cart
// @Produce      json
// @Success      200  {object}  countResponse
// @Router       /api/v1/cart/count [get]
func (h *CartHandler) Count(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	n, err := s.Cart.Count(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// Merge retries merging guest lines left over by a failed merge.
//
// @Summary      Retry guest cart merge
// @Tags         cart
// @Produce      json
// @Success      200  {object}  domain.CartView
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/cart/merge [post]
func (h *CartHandler) Merge(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	view, err := s.Cart.RetryMerge(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
