package handler

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/service"
)

// notificationReconciler is the slice of the reconciler the webhook
// endpoints need.
type notificationReconciler interface {
	Reconcile(ctx context.Context, provider string, form url.Values) (service.Result, error)
	Anomalies(ctx context.Context) ([]model.PaymentRecord, error)
}

// WebhookHandler receives server-to-server payment notifications.
// The route is unauthenticated on purpose: the gateway is the
// caller, and the HMAC or hash chain inside the form body is the
// authentication.  Whatever happens inside reconciliation, a
// verified notification always earns a 200 so the gateway stops
// redelivering; only a signature failure is answered 400.
type WebhookHandler struct {
	Reconciler notificationReconciler
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(r notificationReconciler) *WebhookHandler {
	if r == nil {
		panic("nil reconciler passed to NewWebhookHandler")
	}
	return &WebhookHandler{Reconciler: r}
}

// Notify handles POST /webhooks/:provider.  Gateways POST
// urlencoded forms; any other content type is rejected before the
// body is read.
func (h *WebhookHandler) Notify(c echo.Context) error {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEApplicationForm) {
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "form body required"})
	}
	if err := c.Request().ParseForm(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed form body"})
	}
	provider := c.Param("provider")
	res, err := h.Reconciler.Reconcile(c.Request().Context(), provider, c.Request().PostForm)
	if err != nil {
		// Signature failures are logged and dropped; nothing about
		// the payload can be trusted, so nothing is stored.
		log.Printf("webhook %s: rejected notification: %v", provider, err)
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": string(res)})
}

// PaymentRecordView is an anomaly record as shown to operators.  The
// raw payload is included verbatim for manual reconciliation.
type PaymentRecordView struct {
	ID          uint64    `json:"id"`
	Provider    string    `json:"provider"`
	PaymentID   string    `json:"payment_id"`
	OrderID     *uint64   `json:"order_id,omitempty"`
	StatusCode  string    `json:"status_code"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Purpose     string    `json:"purpose"`
	Anomaly     string    `json:"anomaly"`
	RawPayload  string    `json:"raw_payload"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Anomalies handles GET /v1/payments/anomalies.  The route carries
// the orders:manage permission requirement; it lists verified
// notifications whose financial effect could not be applied.
func (h *WebhookHandler) Anomalies(c echo.Context) error {
	records, err := h.Reconciler.Anomalies(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]PaymentRecordView, 0, len(records))
	for _, r := range records {
		out = append(out, PaymentRecordView{
			ID:          r.ID,
			Provider:    r.Provider,
			PaymentID:   r.PaymentID,
			OrderID:     r.OrderID,
			StatusCode:  r.StatusCode,
			AmountCents: r.AmountCents,
			Currency:    r.Currency,
			Purpose:     r.Purpose,
			Anomaly:     r.Anomaly,
			RawPayload:  r.RawPayload,
			ReceivedAt:  r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"anomalies": out})
}
