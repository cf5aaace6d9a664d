package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order or one of its items.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ShippingAddress is the destination of an order.
type ShippingAddress struct {
	FullName     string `json:"shipping_full_name" validate:"required"`
	Phone        string `json:"shipping_phone" validate:"required"`
	AddressLine1 string `json:"shipping_address_line1" validate:"required"`
	AddressLine2 string `json:"shipping_address_line2,omitempty"`
	City         string `json:"shipping_city" validate:"required"`
	State        string `json:"shipping_state" validate:"required"`
	PostalCode   string `json:"shipping_postal_code" validate:"required"`
	Country      string `json:"shipping_country,omitempty"`
}

// OrderItem is one purchased product with its own fulfilment status.
type OrderItem struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product,omitempty"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ProductSKU   string          `json:"product_sku,omitempty"`
	VendorName   string          `json:"vendor_name,omitempty"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Status       OrderStatus     `json:"status"`
}

// Order is a placed order as reported by the backend. The shipping address
// fields are flattened into the order document.
type Order struct {
	OrderNumber   string      `json:"order_number"`
	Status        OrderStatus `json:"status"`
	CustomerEmail string      `json:"customer_email,omitempty"`
	CustomerName  string      `json:"customer_name,omitempty"`
	GuestEmail    string      `json:"guest_email,omitempty"`
	ShippingAddress
	AddressText  string          `json:"shipping_address,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Notes        string          `json:"customer_notes,omitempty"`
	Items        []OrderItem     `json:"items"`
	ItemCount    int             `json:"item_count"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Cancellable reports whether the customer may still cancel the order.
func (o *Order) Cancellable() bool { return o != nil && o.Status == StatusPending }

// CheckoutInput places an order from the signed-in user's server cart.
// Either Shipping or AddressID must be set.
type CheckoutInput struct {
	Shipping    *ShippingAddress
	AddressID   int64
	SaveAddress bool
	Notes       string
}

// GuestCheckoutInput places an order for an anonymous shopper.
type GuestCheckoutInput struct {
	Email    string
	Shipping ShippingAddress
	Notes    string
}

// VendorOrder is the vendor's view of an order containing their items.
type VendorOrder struct {
	OrderNumber     string      `json:"order_number"`
	OrderStatus     OrderStatus `json:"order_status"`
	CustomerName    string      `json:"customer_name"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
}
