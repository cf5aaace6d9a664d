package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// CatalogHandler exposes the public catalog. It needs no session.
type CatalogHandler struct {
	catalog ports.CatalogAPI
}

func NewCatalogHandler(catalog ports.CatalogAPI) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// Products lists products, one page at a time.
//
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Param        page      query     int     false  "Page number"
// @Param        category  query     string  false  "Category slug"
// @Param        vendor    query     int     false  "Vendor id"
// @Param        search    query     string  false  "Search term"
// @Param        ordering  query     string  false  "Ordering, e.g. -price"
// @Success      200       {object}  domain.Page[domain.Product]
// @Router       /api/v1/catalog/products [get]
func (h *CatalogHandler) Products(c echo.Context) error {
	var q domain.ProductQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	page, err := h.catalog.Products(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Featured lists featured products.
//
// @Summary      Featured products
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  domain.Product
// @Router       /api/v1/catalog/products/featured [get]
func (h *CatalogHandler) Featured(c echo.Context) error {
	products, err := h.catalog.Featured(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// Search finds products matching q.
//
// @Summary      Search products
// @Tags         catalog
// @Produce      json
// @Param        q    query     string  true  "Search term"
// @Success      200  {array}   domain.Product
// @Router       /api/v1/catalog/products/search [get]
func (h *CatalogHandler) Search(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		return c.JSON(http.StatusOK, []domain.Product{})
	}
	products, err := h.catalog.Search(c.Request().Context(), term)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// Product returns one product by id.
//
// @Summary      Get product
// @Tags         catalog
// @Produce      json
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/catalog/products/{id} [get]
func (h *CatalogHandler) Product(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.Product(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ProductBySlug returns one product by slug.
//
// @Summary      Get product by slug
// @Tags         catalog
// @Produce      json
// @Param        slug  path      string  true  "Product slug"
// @Success      200   {object}  domain.Product
// @Router       /api/v1/catalog/products/slug/{slug} [get]
func (h *CatalogHandler) ProductBySlug(c echo.Context) error {
	p, err := h.catalog.ProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Categories lists product categories.
//
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  domain.Category
// @Router       /api/v1/catalog/categories [get]
func (h *CatalogHandler) Categories(c echo.Context) error {
	cats, err := h.catalog.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}

// Vendors lists vendors.
//
// @Summary      List vendors
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  domain.Vendor
// @Router       /api/v1/catalog/vendors [get]
func (h *CatalogHandler) Vendors(c echo.Context) error {
	vendors, err := h.catalog.Vendors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vendors)
}

// Vendor returns one vendor.
//
// @Summary      Get vendor
// @Tags         catalog
// @Produce      json
// @Param        id   path      int  true  "Vendor id"
// @Success      200  {object}  domain.Vendor
// @Router       /api/v1/catalog/vendors/{id} [get]
func (h *CatalogHandler) Vendor(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	v, err := h.catalog.Vendor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}
