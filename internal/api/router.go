package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/storefront/internal/api/handler"
	"github.com/99minutos/storefront/internal/api/middleware"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// RouterDeps is everything the HTTP surface needs.
type RouterDeps struct {
	Sessions middleware.SessionOpener
	Catalog  ports.CatalogAPI
	Cookie   middleware.CookieSettings
	// Ready lists the dependencies checked by the readiness probe.
	Ready map[string]handler.Pinger
	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry, where the session core registers its own.
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Logger))
	promMW := echoprometheus.MiddlewareConfig{Subsystem: "storefront", DoNotUseRequestPathFor404: true}
	promHandler := echoprometheus.HandlerConfig{}
	if d.Registry != nil {
		promMW.Registerer = d.Registry
		promHandler.Gatherer = d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promMW))

	// --- Operational endpoints ---
	health := handler.NewHealthHandler(d.Ready)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(promHandler))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/api/v1")

	// --- Catalog (no session) ---
	catalog := handler.NewCatalogHandler(d.Catalog)
	cg := v1.Group("/catalog")
	cg.GET("/products", catalog.Products)
	cg.GET("/products/featured", catalog.Featured)
	cg.GET("/products/search", catalog.Search)
	cg.GET("/products/slug/:slug", catalog.ProductBySlug)
	cg.GET("/products/:id", catalog.Product)
	cg.GET("/categories", catalog.Categories)
	cg.GET("/vendors", catalog.Vendors)
	cg.GET("/vendors/:id", catalog.Vendor)

	// Everything below runs against the visitor's session.
	sess := middleware.Session(d.Sessions, d.Cookie)
	authed := middleware.RequireAuth()

	auth := handler.NewAuthHandler()
	ag := v1.Group("/auth", sess)
	ag.POST("/login", auth.Login)
	ag.POST("/register", auth.Register)
	ag.POST("/logout", auth.Logout)
	ag.GET("/me", auth.Me)
	ag.PATCH("/profile", auth.UpdateProfile, authed)
	ag.PUT("/password", auth.ChangePassword, authed)

	cart := handler.NewCartHandler()
	kg := v1.Group("/cart", sess)
	kg.GET("", cart.Get)
	kg.DELETE("", cart.Clear)
	kg.GET("/count", cart.Count)
	kg.POST("/items", cart.AddItem)
	kg.PATCH("/items/:ref", cart.UpdateItem)
	kg.DELETE("/items/:ref", cart.RemoveItem)
	kg.POST("/merge", cart.Merge, authed)

	orders := handler.NewOrderHandler()
	og := v1.Group("/orders", sess)
	og.POST("/checkout", orders.Checkout)
	og.GET("/guest/:number", orders.GuestGet)
	og.GET("", orders.List, authed)
	og.GET("/:number", orders.Get, authed)
	og.POST("/:number/cancel", orders.Cancel, authed)

	vg := v1.Group("/vendor", sess, authed, middleware.RBAC(domain.RoleVendor, domain.RoleAdmin))
	vg.GET("/orders", orders.VendorList)
	vg.GET("/orders/:number", orders.VendorGet)
	vg.PATCH("/orders/:number/items/:id/status", orders.UpdateItemStatus)

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
