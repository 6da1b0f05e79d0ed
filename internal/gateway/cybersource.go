package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/utils"
)

// CyberSource implements the Secure Acceptance signing scheme: an
// HMAC-SHA256 over a canonical "name=value" string built from an
// explicit, ordered field list, base64-encoded and attached as the
// "signature" field.  The signed field list itself travels in
// "signed_field_names" so the receiver can rebuild the exact same
// canonical string from the notification payload.
type CyberSource struct {
	ProfileID string
	AccessKey string
	SecretKey string
	ActionURL string
	Currency  string // default currency when the request leaves it empty
}

// checkoutSignedFields is the ordered field list signed on outbound
// checkouts.  Order matters: the canonical string concatenates the
// pairs in exactly this sequence.
var checkoutSignedFields = []string{
	"access_key",
	"profile_id",
	"transaction_uuid",
	"signed_field_names",
	"unsigned_field_names",
	"signed_date_time",
	"locale",
	"transaction_type",
	"reference_number",
	"amount",
	"currency",
	"merchant_defined_data1",
	"merchant_defined_data2",
}

func (g *CyberSource) Name() string { return "cybersource" }

// BuildCheckout assembles and signs the hosted-checkout fields.  The
// payment purpose rides in merchant_defined_data1 and, for wallet
// top-ups, the user to credit in merchant_defined_data2; both are
// signed so they cannot be tampered with in transit.
func (g *CyberSource) BuildCheckout(req CheckoutRequest) (*Checkout, error) {
	currency := req.Currency
	if currency == "" {
		currency = g.Currency
	}
	fields := map[string]string{
		"access_key":             g.AccessKey,
		"profile_id":             g.ProfileID,
		"transaction_uuid":       uuid.NewString(),
		"signed_field_names":     strings.Join(checkoutSignedFields, ","),
		"unsigned_field_names":   "",
		"signed_date_time":       time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		"locale":                 "en",
		"transaction_type":       "sale",
		"reference_number":       req.Reference,
		"amount":                 utils.FormatCents(req.AmountCents),
		"currency":               currency,
		"merchant_defined_data1": req.Purpose,
		"merchant_defined_data2": strconv.FormatUint(req.CustomerID, 10),
	}
	fields["signature"] = g.sign(fields, checkoutSignedFields)
	return &Checkout{ActionURL: g.ActionURL, Fields: fields}, nil
}

// VerifyNotification rebuilds the canonical string from the
// notification's own signed_field_names list and compares the HMAC
// in constant time.  Values are flattened to their first string
// before hashing, matching how the form body is produced.
func (g *CyberSource) VerifyNotification(values url.Values) (*VerifiedPayment, error) {
	names := values.Get("signed_field_names")
	received := values.Get("signature")
	if names == "" || received == "" {
		return nil, ErrMissingField
	}
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	expected := g.sign(fields, strings.Split(names, ","))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return nil, ErrInvalidSignature
	}

	paymentID := values.Get("transaction_id")
	if paymentID == "" {
		return nil, ErrMissingField
	}
	amountStr := values.Get("auth_amount")
	if amountStr == "" {
		amountStr = values.Get("amount")
	}
	amount := int64(0)
	if amountStr != "" {
		a, err := parseAmountCents(amountStr)
		if err != nil {
			return nil, ErrMissingField
		}
		amount = a
	}
	reference := values.Get("req_reference_number")
	if reference == "" {
		reference = values.Get("reference_number")
	}
	purpose := values.Get("req_merchant_defined_data1")
	if purpose == "" {
		purpose = values.Get("merchant_defined_data1")
	}
	if purpose == "" {
		purpose = model.PurposeOrder
	}
	customerStr := values.Get("req_merchant_defined_data2")
	if customerStr == "" {
		customerStr = values.Get("merchant_defined_data2")
	}
	customerID, _ := strconv.ParseUint(customerStr, 10, 64)

	decision := strings.ToUpper(values.Get("decision"))
	currency := values.Get("req_currency")
	if currency == "" {
		currency = values.Get("currency")
	}
	return &VerifiedPayment{
		Provider:    g.Name(),
		PaymentID:   paymentID,
		Reference:   reference,
		AmountCents: amount,
		Currency:    currency,
		StatusCode:  decision,
		Succeeded:   decision == "ACCEPT",
		Purpose:     purpose,
		CustomerID:  customerID,
		Raw:         values,
	}, nil
}

// sign concatenates "name=value" pairs for the given field names in
// order, joined by commas, and returns the base64 HMAC-SHA256 of the
// result keyed by the shared secret.
func (g *CyberSource) sign(fields map[string]string, names []string) string {
	pairs := make([]string, 0, len(names))
	for _, n := range names {
		pairs = append(pairs, n+"="+fields[n])
	}
	mac := hmac.New(sha256.New, []byte(g.SecretKey))
	mac.Write([]byte(strings.Join(pairs, ",")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
