package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
)

type OrderHandler struct{}

func NewOrderHandler() *OrderHandler {
	return &OrderHandler{}
}

type checkoutRequest struct {
	Shipping    *domain.ShippingAddress `json:"shipping" validate:"required_without=AddressID"`
	AddressID   int64                   `json:"address_id"`
	SaveAddress bool                    `json:"save_address"`
	Notes       string                  `json:"notes"`
	// Email is required when the visitor is not signed in.
	Email string `json:"email" validate:"omitempty,email"`
}

type itemStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// Checkout places an order. Signed-in visitors order their server cart;
// anonymous visitors order their guest cart and must give an email.
//
// @Summary      Checkout
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      checkoutRequest  true  "Shipping details"
// @Success      201   {object}  domain.Order
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/orders/checkout [post]
func (h *OrderHandler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var order *domain.Order
	if s.Identity.State().IsAuthenticated() {
		order, err = s.Orders.Checkout(ctx, domain.CheckoutInput{
			Shipping:    req.Shipping,
			AddressID:   req.AddressID,
			SaveAddress: req.SaveAddress,
			Notes:       req.Notes,
		})
	} else {
		if req.Email == "" || req.Shipping == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "email and shipping are required for guest checkout")
		}
		order, err = s.Orders.GuestCheckout(ctx, domain.GuestCheckoutInput{
			Email:    req.Email,
			Shipping: *req.Shipping,
			Notes:    req.Notes,
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// List returns the signed-in visitor's orders.
//
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Success      200  {array}   domain.Order
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	orders, err := s.Orders.Orders(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// Get returns one of the signed-in visitor's orders.
//
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        number  path      string  true  "Order number"
// @Success      200     {object}  domain.Order
// @Failure      404     {object}  map[string]string
// @Router       /api/v1/orders/{number} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	order, err := s.Orders.Order(c.Request().Context(), c.Param("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// GuestGet looks up a guest order by number and email.
//
// @Summary      Track guest order
// @Tags         orders
// @Produce      json
// @Param        number  path      string  true  "Order number"
// @Param        email   query     string  true  "Email used at checkout"
// @Success      200     {object}  domain.Order
// @Failure      404     {object}  map[string]string
// @Router       /api/v1/orders/guest/{number} [get]
func (h *OrderHandler) GuestGet(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	order, err := s.Orders.GuestOrder(c.Request().Context(), c.Param("number"), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Cancel cancels a pending order.
//
// @Summary      Cancel order
// @Tags         orders
// @Produce      json
// @Param        number  path      string  true  "Order number"
// @Success      200     {object}  domain.Order
// @Failure      409     {object}  map[string]string
// @Router       /api/v1/orders/{number}/cancel [post]
func (h *OrderHandler) Cancel(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	order, err := s.Orders.Cancel(c.Request().Context(), c.Param("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// VendorList returns orders containing the vendor's items.
//
// @Summary      Vendor orders
// @Tags         vendor
// @Produce      json
// @Success      200  {array}   domain.Order
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/vendor/orders [get]
func (h *OrderHandler) VendorList(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	orders, err := s.Orders.VendorOrders(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// VendorGet returns the vendor's view of one order.
//
// @Summary      Vendor order detail
// @Tags         vendor
// @Produce      json
// @Param        number  path      string  true  "Order number"
// @Success      200     {object}  domain.VendorOrder
// @Failure      403     {object}  map[string]string
// @Router       /api/v1/vendor/orders/{number} [get]
func (h *OrderHandler) VendorGet(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	order, err := s.Orders.VendorOrder(c.Request().Context(), c.Param("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateItemStatus moves one of the vendor's order items to a new status.
//
// @Summary      Update order item status
// @Tags         vendor
// @Accept       json
// @Produce      json
// @Param        number  path      string             true  "Order number"
// @Param        id      path      int                true  "Order item id"
// @Param        body    body      itemStatusRequest  true  "New status"
// @Success      200     {object}  domain.OrderItem
// @Failure      403     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /api/v1/vendor/orders/{number}/items/{id}/status [patch]
func (h *OrderHandler) UpdateItemStatus(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	var req itemStatusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := sessionOf(c)
	if err != nil {
		return err
	}
	item, err := s.Orders.UpdateItemStatus(c.Request().Context(), c.Param("number"), itemID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}
