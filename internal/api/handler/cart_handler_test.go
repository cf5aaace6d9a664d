package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/app"
	"github.com/99minutos/storefront/internal/core/domain"
)

func TestCartHandler_AddItem(t *testing.T) {
	cart := &stubCart{
		addFn: func(productID int64, qty int) (*domain.CartView, error) {
			if productID != 7 || qty != 2 {
				t.Fatalf("unexpected add: %d x%d", productID, qty)
			}
			return &domain.CartView{Kind: domain.LineGuest, Count: 2}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/v1/cart/items", `{"product_id":7,"quantity":2}`, &app.Session{Cart: cart})

	if err := NewCartHandler().AddItem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCartHandler_AddItem_RequiresProduct(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/v1/cart/items", `{"quantity":2}`, &app.Session{Cart: &stubCart{}})

	if err := NewCartHandler().AddItem(c); httpCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func withRef(c echo.Context, ref string) echo.Context {
	c.SetParamNames("ref")
	c.SetParamValues(ref)
	return c
}

func TestCartHandler_UpdateItem_ParsesRef(t *testing.T) {
	cart := &stubCart{
		updateFn: func(ref domain.LineRef, qty int) (*domain.CartView, error) {
			if ref != domain.ServerRef(12) || qty != 3 {
				t.Fatalf("unexpected update: %v x%d", ref, qty)
			}
			return &domain.CartView{Kind: domain.LineServer, Count: 3}, nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/api/v1/cart/items/server:12", `{"quantity":3}`, &app.Session{Cart: cart})

	if err := NewCartHandler().UpdateItem(withRef(c, "server:12")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCartHandler_UpdateItem_BadRef(t *testing.T) {
	for _, ref := range []string{"12", "server:abc", "basket:1", "guest:0"} {
		c, _ := newContext(http.MethodPatch, "/api/v1/cart/items/x", `{"quantity":3}`, &app.Session{Cart: &stubCart{}})
		if err := NewCartHandler().UpdateItem(withRef(c, ref)); httpCode(err) != http.StatusBadRequest {
			t.Fatalf("ref %q: expected 400, got %v", ref, err)
		}
	}
}

func TestCartHandler_UpdateItem_Mismatch(t *testing.T) {
	cart := &stubCart{
		updateFn: func(domain.LineRef, int) (*domain.CartView, error) {
			return nil, domain.ErrLineRefMismatch
		},
	}
	c, _ := newContext(http.MethodPatch, "/api/v1/cart/items/guest:7", `{"quantity":1}`, &app.Session{Cart: cart})

	if err := NewCartHandler().UpdateItem(withRef(c, "guest:7")); err != domain.ErrLineRefMismatch {
		t.Fatalf("expected ErrLineRefMismatch, got %v", err)
	}
}
