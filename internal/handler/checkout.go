package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/service"
)

// CheckoutHandler builds hosted-checkout payloads.  The response is
// the gateway's action URL plus the exact signed fields the client
// browser must POST there; the server never redirects itself.
type CheckoutHandler struct {
	Checkout *service.CheckoutService
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	if checkout == nil {
		panic("nil service passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Checkout: checkout}
}

// Providers handles GET /v1/checkout/providers and lists the gateway
// names enabled by configuration.
func (h *CheckoutHandler) Providers(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"providers": h.Checkout.Providers()})
}

// Build handles POST /v1/checkout/:provider.  For purpose "order"
// the stored order total is authoritative and any client-supplied
// amount is only cross-checked; for purpose "wallet" the amount is
// required and funds the caller's own wallet.
func (h *CheckoutHandler) Build(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in model.CheckoutInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	co, err := h.Checkout.BuildCheckout(c.Request().Context(), userID, c.Param("provider"), in)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, co)
}
