package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/middleware"
	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/service"
)

// OrderHandler serves order creation, listing, the status state
// machine and wallet settlement.  All routes require a valid JWT;
// status changes that are staff-only additionally require the
// orders:manage permission, which the handler passes down as the
// privileged flag.
type OrderHandler struct {
	Orders *service.OrderService  // order creation and transitions
	Wallet *service.WalletService // wallet settlement of orders
}

// NewOrderHandler constructs an OrderHandler.  Both services must be
// non-nil.
func NewOrderHandler(orders *service.OrderService, wallet *service.WalletService) *OrderHandler {
	if orders == nil || wallet == nil {
		panic("nil service passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders, Wallet: wallet}
}

// OrderLineView is one snapshot line of an order as returned to
// clients.  Zero-priced pack component lines are included so that
// the client can show what a pack reserved.
type OrderLineView struct {
	ItemCode       string `json:"item_code"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	Size           string `json:"size,omitempty"`
	Color          string `json:"color,omitempty"`
	PackCode       string `json:"pack_code,omitempty"`
}

// OrderView is the client-facing representation of an order.
type OrderView struct {
	ID              uint64          `json:"id"`
	PublicCode      string          `json:"public_code"`
	Status          string          `json:"status"`
	TotalCents      int64           `json:"total_cents"`
	Items           []OrderLineView `json:"items"`
	StatusChangedAt time.Time       `json:"status_changed_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

func orderView(o *model.Order) OrderView {
	out := OrderView{
		ID:              o.ID,
		PublicCode:      o.PublicCode,
		Status:          o.Status,
		TotalCents:      o.TotalCents,
		Items:           make([]OrderLineView, 0, len(o.Items)),
		StatusChangedAt: o.StatusChangedAt,
		CreatedAt:       o.CreatedAt,
	}
	for _, l := range o.Items {
		out.Items = append(out.Items, OrderLineView{
			ItemCode:       l.ItemCode,
			Name:           l.Name,
			UnitPriceCents: l.UnitPriceCents,
			Quantity:       l.Quantity,
			Size:           l.Size,
			Color:          l.Color,
			PackCode:       l.PackCode,
		})
	}
	return out
}

// Create handles POST /v1/orders.  The body lists the requested item
// and pack codes with quantities; prices are always taken from the
// catalog, never from the client.  Stock for every line is reserved
// atomically with the order row, so a 201 response means the goods
// are held.
func (h *OrderHandler) Create(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in model.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	order, err := h.Orders.Create(c.Request().Context(), userID, in)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, orderView(order))
}

// List handles GET /v1/orders and returns the caller's own orders,
// newest first.
func (h *OrderHandler) List(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListMine(c.Request().Context(), userID)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]OrderView, 0, len(orders))
	for i := range orders {
		out = append(out, orderView(&orders[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}

// Get handles GET /v1/orders/:id.  Non-staff callers can only see
// their own orders; an order belonging to someone else answers 404,
// not 403, so that order ids are not probeable.
func (h *OrderHandler) Get(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	privileged := middleware.HasPermission(c, middleware.PermOrdersManage)
	order, err := h.Orders.Get(c.Request().Context(), userID, privileged, orderID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, orderView(order))
}

// ChangeStatus handles POST /v1/orders/:id/status.  Requesting the
// current status is an audited no-op; illegal jumps answer 409 and
// staff-only moves answer 403 for non-staff callers.
func (h *OrderHandler) ChangeStatus(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var in model.ChangeOrderStatusInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	privileged := middleware.HasPermission(c, middleware.PermOrdersManage)
	order, err := h.Orders.Transition(c.Request().Context(), userID, privileged, orderID, in.Status)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, orderView(order))
}

// Cancel handles POST /v1/orders/:id/cancel, shorthand for a status
// change to CANCELLED.  Stock held by the order is released exactly
// once; cancelling an already paid order remains staff-only.
func (h *OrderHandler) Cancel(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	privileged := middleware.HasPermission(c, middleware.PermOrdersManage)
	order, err := h.Orders.Transition(c.Request().Context(), userID, privileged, orderID, model.OrderCancelled)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, orderView(order))
}

// Pay handles POST /v1/orders/:id/pay and settles the order from the
// caller's wallet balance in one atomic debit-and-transition.
func (h *OrderHandler) Pay(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.Wallet.PayOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, orderView(order))
}
