package restapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/99minutos/storefront/internal/core/domain"
)

// productDTO accepts both the list and the detail product documents: the list
// form carries vendor_name and primary_image, the detail form a vendor object
// and an images array.
type productDTO struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Price        decimal.Decimal     `json:"price"`
	ComparePrice decimal.NullDecimal `json:"compare_price"`
	Stock        int                 `json:"stock"`
	IsInStock    bool                `json:"is_in_stock"`
	VendorName   string              `json:"vendor_name"`
	Vendor       *domain.Vendor      `json:"vendor"`
	Category     *domain.Category    `json:"category"`
	PrimaryImage *imageDTO           `json:"primary_image"`
	Images       []imageDTO          `json:"images"`
}

type imageDTO struct {
	Image     string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
}

func (p *productDTO) toDomain() *domain.Product {
	if p == nil {
		return nil
	}
	out := &domain.Product{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Price:        p.Price,
		ComparePrice: p.ComparePrice,
		Stock:        p.Stock,
		IsInStock:    p.IsInStock,
		VendorName:   p.VendorName,
		Category:     p.Category,
	}
	if out.VendorName == "" && p.Vendor != nil {
		out.VendorName = p.Vendor.StoreName
	}
	switch {
	case p.PrimaryImage != nil:
		out.Image = p.PrimaryImage.Image
	case len(p.Images) > 0:
		out.Image = p.Images[0].Image
		for _, img := range p.Images {
			if img.IsPrimary {
				out.Image = img.Image
				break
			}
		}
	}
	return out
}

func productsToDomain(in []productDTO) []domain.Product {
	out := make([]domain.Product, 0, len(in))
	for i := range in {
		out = append(out, *in[i].toDomain())
	}
	return out
}

type cartLineDTO struct {
	ID          int64           `json:"id"`
	Product     *productDTO     `json:"product"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	IsAvailable bool            `json:"is_available"`
}

type cartDTO struct {
	ID         int64           `json:"id"`
	Items      []cartLineDTO   `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

func (c *cartDTO) toDomain() *domain.ServerCart {
	if c == nil {
		return &domain.ServerCart{Items: []domain.ServerLine{}}
	}
	out := &domain.ServerCart{
		ID:         c.ID,
		Items:      make([]domain.ServerLine, 0, len(c.Items)),
		TotalItems: c.TotalItems,
		Subtotal:   c.Subtotal,
	}
	for _, l := range c.Items {
		out.Items = append(out.Items, domain.ServerLine{
			ID:          l.ID,
			Product:     l.Product.toDomain(),
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal,
			IsAvailable: l.IsAvailable,
		})
	}
	return out
}

type cartEnvelope struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Cart    *cartDTO `json:"cart"`
}

// listOf decodes either a bare JSON array or a paginated {"results": [...]}
// document, since the backend disables pagination on some list views only.
type listOf[T any] struct {
	Items []T
	Count int
	Next  string
	Prev  string
}

func (l *listOf[T]) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &l.Items); err == nil {
		l.Count = len(l.Items)
		return nil
	}
	var page struct {
		Count    int    `json:"count"`
		Next     string `json:"next"`
		Previous string `json:"previous"`
		Results  []T    `json:"results"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return err
	}
	l.Items, l.Count, l.Next, l.Prev = page.Results, page.Count, page.Next, page.Previous
	return nil
}
