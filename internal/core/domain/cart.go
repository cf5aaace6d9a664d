package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// GuestLine is one entry of the local cart kept in durable storage.
type GuestLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// AddGuestLine adds qty of productID, summing into an existing line.
func AddGuestLine(lines []GuestLine, productID int64, qty int) []GuestLine {
	out := make([]GuestLine, 0, len(lines)+1)
	found := false
	for _, l := range lines {
		if l.ProductID == productID {
			l.Quantity += qty
			found = true
		}
		out = append(out, l)
	}
	if !found {
		out = append(out, GuestLine{ProductID: productID, Quantity: qty})
	}
	return out
}

// SetGuestQuantity sets the quantity of productID. A quantity of zero or less
// removes the line. Unknown products are ignored.
func SetGuestQuantity(lines []GuestLine, productID int64, qty int) []GuestLine {
	if qty <= 0 {
		return RemoveGuestLine(lines, productID)
	}
	out := make([]GuestLine, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity = qty
		}
	}
	return out
}

// RemoveGuestLine drops productID from lines.
func RemoveGuestLine(lines []GuestLine, productID int64) []GuestLine {
	out := make([]GuestLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}

// GuestCount is the sum of quantities of lines.
func GuestCount(lines []GuestLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// LineKind tells which cart representation a line belongs to.
type LineKind string

const (
	LineGuest  LineKind = "guest"
	LineServer LineKind = "server"
)

// LineRef addresses a cart line for mutation. Server lines are addressed by
// their server-issued id, guest lines by product id.
type LineRef struct {
	Kind      LineKind
	LineID    int64
	ProductID int64
}

// ServerRef references the server line id.
func ServerRef(id int64) LineRef { return LineRef{Kind: LineServer, LineID: id} }

// GuestRef references the guest line holding productID.
func GuestRef(productID int64) LineRef { return LineRef{Kind: LineGuest, ProductID: productID} }

func (r LineRef) String() string {
	if r.Kind == LineServer {
		return "server:" + strconv.FormatInt(r.LineID, 10)
	}
	return "guest:" + strconv.FormatInt(r.ProductID, 10)
}

// ParseLineRef parses the "kind:id" form produced by String.
func ParseLineRef(s string) (LineRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return LineRef{}, fmt.Errorf("line ref %q: missing kind", s)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return LineRef{}, fmt.Errorf("line ref %q: invalid id", s)
	}
	switch LineKind(kind) {
	case LineServer:
		return ServerRef(n), nil
	case LineGuest:
		return GuestRef(n), nil
	}
	return LineRef{}, fmt.Errorf("line ref %q: unknown kind", s)
}

func (r LineRef) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *LineRef) UnmarshalText(b []byte) error {
	ref, err := ParseLineRef(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// ServerLine is a priced line of the server cart.
type ServerLine struct {
	ID          int64           `json:"id"`
	Product     *Product        `json:"product"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	IsAvailable bool            `json:"is_available"`
}

// ServerCart is the backend's snapshot of the signed-in user's cart.
type ServerCart struct {
	ID         int64           `json:"id"`
	Items      []ServerLine    `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// MergeResult is the backend's answer to a guest cart merge.
type MergeResult struct {
	Message string      `json:"message"`
	Errors  []string    `json:"errors,omitempty"`
	Cart    *ServerCart `json:"cart"`
}

// CartLine is one line of the reconciled cart view.
type CartLine struct {
	Ref       LineRef             `json:"ref"`
	ProductID int64               `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	Product   *Product            `json:"product,omitempty"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Subtotal  decimal.NullDecimal `json:"subtotal"`
	Available bool                `json:"available"`
}

// CartView is what the view layer renders, whichever representation backs it.
type CartView struct {
	Kind         LineKind   `json:"kind"`
	Lines        []CartLine `json:"lines"`
	Totals       Totals     `json:"totals"`
	Count        int        `json:"count"`
	PendingMerge bool       `json:"pending_merge,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`
}

// GuestView builds a view of guest lines. products maps product ids to the
// lookups that succeeded; lines without a product stay listed but are left
// out of the subtotal.
func GuestView(lines []GuestLine, products map[int64]*Product, pricing PricingPolicy) CartView {
	view := CartView{Kind: LineGuest, Lines: make([]CartLine, 0, len(lines))}
	subtotal := decimal.Zero
	for _, l := range lines {
		cl := CartLine{Ref: GuestRef(l.ProductID), ProductID: l.ProductID, Quantity: l.Quantity}
		if p, ok := products[l.ProductID]; ok && p != nil {
			line := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			cl.Product = p
			cl.Available = p.IsInStock
			cl.UnitPrice = decimal.NewNullDecimal(p.Price)
			cl.Subtotal = decimal.NewNullDecimal(line)
			subtotal = subtotal.Add(line)
		}
		view.Lines = append(view.Lines, cl)
		view.Count += l.Quantity
	}
	view.Totals = pricing.Totals(subtotal)
	return view
}

// ServerView builds a view of the server cart, applying pricing to the
// server-reported subtotal.
func ServerView(cart *ServerCart, pricing PricingPolicy) CartView {
	view := CartView{Kind: LineServer, Lines: []CartLine{}}
	if cart == nil {
		view.Totals = pricing.Totals(decimal.Zero)
		return view
	}
	for _, l := range cart.Items {
		cl := CartLine{
			Ref:       ServerRef(l.ID),
			Quantity:  l.Quantity,
			Product:   l.Product,
			Subtotal:  decimal.NewNullDecimal(l.Subtotal),
			Available: l.IsAvailable,
		}
		if l.Product != nil {
			cl.ProductID = l.Product.ID
			cl.UnitPrice = decimal.NewNullDecimal(l.Product.Price)
		}
		view.Lines = append(view.Lines, cl)
	}
	view.Count = cart.TotalItems
	view.Totals = pricing.Totals(cart.Subtotal)
	return view
}
