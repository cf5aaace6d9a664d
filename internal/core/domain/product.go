package domain

import "github.com/shopspring/decimal"

// Category groups products in the catalog.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Vendor is a store selling on the marketplace.
type Vendor struct {
	ID          int64  `json:"id"`
	StoreName   string `json:"store_name"`
	Slug        string `json:"slug,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	Description string `json:"store_description,omitempty"`
}

// Product is a catalog entry as listed by the backend.
type Product struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Price        decimal.Decimal     `json:"price"`
	ComparePrice decimal.NullDecimal `json:"compare_price"`
	Stock        int                 `json:"stock"`
	IsInStock    bool                `json:"is_in_stock"`
	VendorName   string              `json:"vendor_name,omitempty"`
	Category     *Category           `json:"category,omitempty"`
	Image        string              `json:"image,omitempty"`
}

// ProductQuery filters the product listing. Zero values are omitted.
type ProductQuery struct {
	Page     int    `json:"page,omitempty" query:"page"`
	Category string `json:"category,omitempty" query:"category"`
	Vendor   int64  `json:"vendor,omitempty" query:"vendor"`
	Search   string `json:"search,omitempty" query:"search"`
	Ordering string `json:"ordering,omitempty" query:"ordering"`
}

// Page is one page of a paginated backend listing.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}
