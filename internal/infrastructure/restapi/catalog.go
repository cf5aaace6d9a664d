package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/99minutos/storefront/internal/core/domain"
)

// CatalogAPI maps the public product, category and vendor endpoints.
type CatalogAPI struct {
	c *Client
}

func NewCatalogAPI(c *Client) *CatalogAPI { return &CatalogAPI{c: c} }

func (a *CatalogAPI) Products(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Category != "" {
		params.Set("category_slug", q.Category)
	}
	if q.Vendor > 0 {
		params.Set("vendor", strconv.FormatInt(q.Vendor, 10))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Ordering != "" {
		params.Set("ordering", q.Ordering)
	}

	var list listOf[productDTO]
	if err := a.get(ctx, "products/", params, &list); err != nil {
		return nil, err
	}
	return &domain.Page[domain.Product]{
		Count:    list.Count,
		Next:     list.Next,
		Previous: list.Prev,
		Results:  productsToDomain(list.Items),
	}, nil
}

func (a *CatalogAPI) Featured(ctx context.Context) ([]domain.Product, error) {
	var list listOf[productDTO]
	if err := a.get(ctx, "products/featured/", nil, &list); err != nil {
		return nil, err
	}
	return productsToDomain(list.Items), nil
}

func (a *CatalogAPI) Search(ctx context.Context, term string) ([]domain.Product, error) {
	var list listOf[productDTO]
	if err := a.get(ctx, "products/search/", url.Values{"q": {term}}, &list); err != nil {
		return nil, err
	}
	return productsToDomain(list.Items), nil
}

func (a *CatalogAPI) Product(ctx context.Context, id int64) (*domain.Product, error) {
	var p productDTO
	if err := a.get(ctx, fmt.Sprintf("products/%d/", id), nil, &p); err != nil {
		return nil, err
	}
	return p.toDomain(), nil
}

func (a *CatalogAPI) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p productDTO
	if err := a.get(ctx, "products/detail/"+segment(slug)+"/", nil, &p); err != nil {
		return nil, err
	}
	return p.toDomain(), nil
}

func (a *CatalogAPI) Categories(ctx context.Context) ([]domain.Category, error) {
	var list listOf[domain.Category]
	if err := a.get(ctx, "products/categories/", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (a *CatalogAPI) Vendors(ctx context.Context) ([]domain.Vendor, error) {
	var list listOf[domain.Vendor]
	if err := a.get(ctx, "vendors/", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (a *CatalogAPI) Vendor(ctx context.Context, id int64) (*domain.Vendor, error) {
	var v domain.Vendor
	if err := a.get(ctx, fmt.Sprintf("vendors/%d/", id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (a *CatalogAPI) get(ctx context.Context, path string, q url.Values, out any) error {
	return a.c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q, SkipAuth: true}, out)
}
