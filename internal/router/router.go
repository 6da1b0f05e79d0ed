// Package router defines how HTTP routes are registered for the API.
// Route registration is split by concern so that each surface (public
// catalog, authenticated commerce, gateway webhooks) can be wired with
// exactly the middleware it needs.
package router

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/iliyamo/conference-commerce/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterCatalog registers the unauthenticated catalog browse
// endpoints.  Catalog responses are read-mostly, so the optional
// cache middleware (nil to disable) is applied to the whole group.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/catalog")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/items", h.ListItems)
	g.GET("/items/:code", h.GetItem)
	g.GET("/packs", h.ListPacks)
	g.GET("/packs/:code", h.GetPack)
}

// RegisterWebhooks registers the gateway notification endpoint.  The
// route is deliberately outside the JWT group: the gateway is the
// caller and the signature inside the form body is the
// authentication.  The rate limiter (nil to disable) throttles by
// client IP since webhook callers carry no token.
func RegisterWebhooks(e *echo.Echo, h *handler.WebhookHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/webhooks")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/:provider", h.Notify)
}
