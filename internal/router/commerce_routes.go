package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/handler"
	"github.com/iliyamo/conference-commerce/internal/middleware"
)

// Commerce groups the handlers behind the authenticated /v1 surface.
// Splitting them from registration keeps main's wiring short.
type Commerce struct {
	Orders   *handler.OrderHandler
	Seats    *handler.SeatHandler
	Wallet   *handler.WalletHandler
	Checkout *handler.CheckoutHandler
	Webhooks *handler.WebhookHandler // anomaly listing only; Notify is public
}

// RegisterCommerce registers every authenticated endpoint under /v1.
// All routes require a valid access token; staff-only routes
// additionally carry a permission requirement.  The rate limiter
// (nil to disable) throttles write-heavy endpoints per user.
func RegisterCommerce(e *echo.Echo, c Commerce, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// Orders: creation and settlement are write paths, so they sit
	// behind the limiter when one is configured.
	orders := g.Group("/orders")
	if limiter != nil {
		orders.Use(limiter)
	}
	orders.POST("", c.Orders.Create)
	orders.GET("", c.Orders.List)
	orders.GET("/:id", c.Orders.Get)
	orders.POST("/:id/status", c.Orders.ChangeStatus)
	orders.POST("/:id/cancel", c.Orders.Cancel)
	orders.POST("/:id/pay", c.Orders.Pay)

	// Banquet seats.  Booking requires the seats:book permission so
	// that only group representatives can hold seats; the read-only
	// floor map is open to any authenticated user.
	seats := g.Group("/seats")
	if limiter != nil {
		seats.Use(limiter)
	}
	seats.GET("", c.Seats.SeatMap)
	seats.GET("/mine", c.Seats.ListMine)
	seats.POST("/book", c.Seats.Book, middleware.RequirePermission(middleware.PermSeatsBook))
	seats.DELETE("/:table/:seat", c.Seats.Release, middleware.RequirePermission(middleware.PermSeatsBook))

	// Wallet.  Balance and history are self-service; manual ledger
	// corrections are an operator action.
	g.GET("/wallet", c.Wallet.Balance)
	g.GET("/wallet/transactions", c.Wallet.History)
	g.POST("/wallet/credit", c.Wallet.Credit, middleware.RequirePermission(middleware.PermWalletManage))
	g.POST("/wallet/debit", c.Wallet.Debit, middleware.RequirePermission(middleware.PermWalletManage))

	// Hosted checkout building.
	g.GET("/checkout/providers", c.Checkout.Providers)
	g.POST("/checkout/:provider", c.Checkout.Build)

	// Operator view of verified notifications whose effect could not
	// be applied.
	g.GET("/payments/anomalies", c.Webhooks.Anomalies, middleware.RequirePermission(middleware.PermOrdersManage))
}
