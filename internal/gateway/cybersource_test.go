package gateway

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-commerce/internal/model"
)

func testCyberSource() *CyberSource {
	return &CyberSource{
		ProfileID: "profile-123",
		AccessKey: "access-456",
		SecretKey: "super-secret-key",
		ActionURL: "https://testsecureacceptance.cybersource.com/pay",
		Currency:  "USD",
	}
}

// notification simulates the gateway echoing the signed checkout
// fields back with req_ prefixes, adding its own unsigned response
// fields, and re-signing over a response field list.
func notification(g *CyberSource, co *Checkout, decision string) url.Values {
	signedNames := []string{
		"req_reference_number",
		"req_amount",
		"req_currency",
		"req_merchant_defined_data1",
		"req_merchant_defined_data2",
		"decision",
		"auth_amount",
		"signed_field_names",
	}
	fields := map[string]string{
		"req_reference_number":       co.Fields["reference_number"],
		"req_amount":                 co.Fields["amount"],
		"req_currency":               co.Fields["currency"],
		"req_merchant_defined_data1": co.Fields["merchant_defined_data1"],
		"req_merchant_defined_data2": co.Fields["merchant_defined_data2"],
		"decision":                   decision,
		"auth_amount":                co.Fields["amount"],
		"signed_field_names":         "req_reference_number,req_amount,req_currency,req_merchant_defined_data1,req_merchant_defined_data2,decision,auth_amount,signed_field_names",
	}
	v := url.Values{}
	for k, val := range fields {
		v.Set(k, val)
	}
	v.Set("transaction_id", "6641327309856170004001")
	v.Set("signature", g.sign(fields, signedNames))
	return v
}

func TestCyberSourceCheckoutIsSelfVerifiable(t *testing.T) {
	g := testCyberSource()
	co, err := g.BuildCheckout(CheckoutRequest{
		Reference:   "ORD-9F2C41AB",
		AmountCents: 250000,
		Purpose:     model.PurposeOrder,
		CustomerID:  42,
	})
	require.NoError(t, err)
	assert.Equal(t, "2500.00", co.Fields["amount"])
	assert.NotEmpty(t, co.Fields["signature"])
	assert.NotEmpty(t, co.Fields["transaction_uuid"])

	// The checkout payload signs its own signed_field_names, so the
	// verifier accepts it once a transaction_id and decision ride
	// along as unsigned fields.
	v := url.Values{}
	for k, val := range co.Fields {
		v.Set(k, val)
	}
	v.Set("transaction_id", "6641327309856170004001")
	v.Set("decision", "ACCEPT")

	vp, err := g.VerifyNotification(v)
	require.NoError(t, err)
	assert.True(t, vp.Succeeded)
	assert.Equal(t, "ORD-9F2C41AB", vp.Reference)
	assert.Equal(t, int64(250000), vp.AmountCents)
	assert.Equal(t, model.PurposeOrder, vp.Purpose)
	assert.Equal(t, uint64(42), vp.CustomerID)
	assert.Equal(t, "6641327309856170004001", vp.PaymentID)
}

func TestCyberSourceNotificationRoundTrip(t *testing.T) {
	g := testCyberSource()
	co, err := g.BuildCheckout(CheckoutRequest{
		Reference:   "WLT-D41E9C07",
		AmountCents: 9900,
		Purpose:     model.PurposeWallet,
		CustomerID:  42,
	})
	require.NoError(t, err)

	vp, err := g.VerifyNotification(notification(g, co, "ACCEPT"))
	require.NoError(t, err)
	assert.True(t, vp.Succeeded)
	assert.Equal(t, "ACCEPT", vp.StatusCode)
	assert.Equal(t, "WLT-D41E9C07", vp.Reference)
	assert.Equal(t, int64(9900), vp.AmountCents)
	assert.Equal(t, "USD", vp.Currency)
	assert.Equal(t, model.PurposeWallet, vp.Purpose)
	assert.Equal(t, uint64(42), vp.CustomerID)
}

func TestCyberSourceDeclineVerifiesButNotSucceeded(t *testing.T) {
	g := testCyberSource()
	co, err := g.BuildCheckout(CheckoutRequest{Reference: "ORD-1", AmountCents: 1000})
	require.NoError(t, err)

	vp, err := g.VerifyNotification(notification(g, co, "DECLINE"))
	require.NoError(t, err)
	assert.False(t, vp.Succeeded)
	assert.Equal(t, "DECLINE", vp.StatusCode)
}

func TestCyberSourceTamperedSignedFieldRejected(t *testing.T) {
	g := testCyberSource()
	co, err := g.BuildCheckout(CheckoutRequest{Reference: "ORD-1", AmountCents: 1000})
	require.NoError(t, err)

	v := notification(g, co, "ACCEPT")
	v.Set("auth_amount", "0.01")
	_, err = g.VerifyNotification(v)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCyberSourceWrongSecretRejected(t *testing.T) {
	g := testCyberSource()
	co, err := g.BuildCheckout(CheckoutRequest{Reference: "ORD-1", AmountCents: 1000})
	require.NoError(t, err)

	other := testCyberSource()
	other.SecretKey = "different-secret"
	_, err = other.VerifyNotification(notification(g, co, "ACCEPT"))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCyberSourceMissingTransactionIDRejected(t *testing.T) {
	g := testCyberSource()
	co, err := g.BuildCheckout(CheckoutRequest{Reference: "ORD-1", AmountCents: 1000})
	require.NoError(t, err)

	v := notification(g, co, "ACCEPT")
	v.Del("transaction_id")
	_, err = g.VerifyNotification(v)
	assert.ErrorIs(t, err, ErrMissingField)
}
