package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-commerce/internal/gateway"
	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/service"
)

// stubReconciler records the last call and replies with canned
// values so the webhook endpoint can be tested without a database.
type stubReconciler struct {
	lastProvider string
	lastForm     url.Values
	result       service.Result
	err          error
	records      []model.PaymentRecord
}

func (s *stubReconciler) Reconcile(_ context.Context, provider string, form url.Values) (service.Result, error) {
	s.lastProvider = provider
	s.lastForm = form
	return s.result, s.err
}

func (s *stubReconciler) Anomalies(context.Context) ([]model.PaymentRecord, error) {
	return s.records, nil
}

func notifyRequest(t *testing.T, provider, contentType, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+provider, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("provider")
	c.SetParamValues(provider)
	return c, rec
}

func TestWebhookNotifyPassesFormToReconciler(t *testing.T) {
	stub := &stubReconciler{result: service.ResultApplied}
	h := NewWebhookHandler(stub)

	form := url.Values{}
	form.Set("payment_id", "PH-1001")
	form.Set("status_code", "2")
	c, rec := notifyRequest(t, "payhere", echo.MIMEApplicationForm, form.Encode())

	require.NoError(t, h.Notify(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payhere", stub.lastProvider)
	assert.Equal(t, "PH-1001", stub.lastForm.Get("payment_id"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "applied", body["result"])
}

func TestWebhookNotifyRejectsNonFormBody(t *testing.T) {
	stub := &stubReconciler{result: service.ResultApplied}
	h := NewWebhookHandler(stub)

	c, rec := notifyRequest(t, "payhere", echo.MIMEApplicationJSON, `{"payment_id":"PH-1001"}`)
	require.NoError(t, h.Notify(c))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, stub.lastProvider, "reconciler must not run for unsupported media types")
}

func TestWebhookNotifyBadSignatureAnswers400(t *testing.T) {
	stub := &stubReconciler{err: gateway.ErrInvalidSignature}
	h := NewWebhookHandler(stub)

	c, rec := notifyRequest(t, "payhere", echo.MIMEApplicationForm, "payment_id=PH-1001")
	require.NoError(t, h.Notify(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookNotifyUnknownProviderAnswers404(t *testing.T) {
	stub := &stubReconciler{err: service.ErrUnknownProvider}
	h := NewWebhookHandler(stub)

	c, rec := notifyRequest(t, "stripe", echo.MIMEApplicationForm, "payment_id=X")
	require.NoError(t, h.Notify(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookNotifyRedeliveryStillAnswers200(t *testing.T) {
	stub := &stubReconciler{result: service.ResultAlreadyProcessed}
	h := NewWebhookHandler(stub)

	c, rec := notifyRequest(t, "cybersource", echo.MIMEApplicationForm, "transaction_id=TX-1")
	require.NoError(t, h.Notify(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "already_processed", body["result"])
}

func TestWebhookAnomaliesListsFlaggedRecords(t *testing.T) {
	orderID := uint64(7)
	stub := &stubReconciler{records: []model.PaymentRecord{
		{
			ID:          3,
			Provider:    "payhere",
			PaymentID:   "PH-2001",
			OrderID:     &orderID,
			StatusCode:  "2",
			AmountCents: 120000,
			Currency:    "LKR",
			Purpose:     model.PurposeOrder,
			Anomaly:     "amount 120000 does not match order total 240000",
		},
	}}
	h := NewWebhookHandler(stub)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/payments/anomalies", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Anomalies(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Anomalies []PaymentRecordView `json:"anomalies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Anomalies, 1)
	assert.Equal(t, "PH-2001", body.Anomalies[0].PaymentID)
	require.NotNil(t, body.Anomalies[0].OrderID)
	assert.Equal(t, orderID, *body.Anomalies[0].OrderID)
	assert.Contains(t, body.Anomalies[0].Anomaly, "does not match")
}
