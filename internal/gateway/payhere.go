package gateway

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/utils"
)

// PayHere status codes as delivered in notify payloads.
const (
	payHereSuccess    = "2"
	payHerePending    = "0"
	payHereCancelled  = "-1"
	payHereFailed     = "-2"
	payHereChargeback = "-3"
)

// PayHere implements the hash-chain scheme of the PayHere gateway.
// Outbound: UPPER(MD5(merchant_id + order_id + amount + currency +
// UPPER(MD5(secret)))).  Inbound: the same chain extended with the
// payhere_amount, payhere_currency and status_code fields, compared
// against md5sig.  Amounts are formatted with exactly two decimal
// places before hashing; any other formatting breaks verification.
type PayHere struct {
	MerchantID string
	Secret     string
	ActionURL  string
	ReturnURL  string
	CancelURL  string
	NotifyURL  string
	Currency   string // default currency when the request leaves it empty
}

func (g *PayHere) Name() string { return "payhere" }

// BuildCheckout assembles the hosted-checkout form fields.  The
// payment purpose travels in custom_1 and the wallet user in
// custom_2; PayHere echoes both back on the notification.
func (g *PayHere) BuildCheckout(req CheckoutRequest) (*Checkout, error) {
	currency := req.Currency
	if currency == "" {
		currency = g.Currency
	}
	amount := utils.FormatCents(req.AmountCents)
	hash := md5Upper(g.MerchantID + req.Reference + amount + currency + md5Upper(g.Secret))

	fields := map[string]string{
		"merchant_id": g.MerchantID,
		"return_url":  g.ReturnURL,
		"cancel_url":  g.CancelURL,
		"notify_url":  g.NotifyURL,
		"order_id":    req.Reference,
		"items":       req.Reference,
		"amount":      amount,
		"currency":    currency,
		"hash":        hash,
		"first_name":  req.FirstName,
		"last_name":   req.LastName,
		"email":       req.Email,
		"custom_1":    req.Purpose,
		"custom_2":    strconv.FormatUint(req.CustomerID, 10),
	}
	return &Checkout{ActionURL: g.ActionURL, Fields: fields}, nil
}

// VerifyNotification re-derives the notification hash chain and
// compares it to md5sig in constant time.
func (g *PayHere) VerifyNotification(values url.Values) (*VerifiedPayment, error) {
	merchantID := values.Get("merchant_id")
	orderID := values.Get("order_id")
	amountStr := values.Get("payhere_amount")
	currency := values.Get("payhere_currency")
	statusCode := values.Get("status_code")
	received := values.Get("md5sig")
	paymentID := values.Get("payment_id")
	if merchantID == "" || orderID == "" || amountStr == "" || currency == "" || statusCode == "" || received == "" || paymentID == "" {
		return nil, ErrMissingField
	}

	expected := md5Upper(merchantID + orderID + amountStr + currency + statusCode + md5Upper(g.Secret))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return nil, ErrInvalidSignature
	}
	if merchantID != g.MerchantID {
		return nil, ErrInvalidSignature
	}

	amount, err := parseAmountCents(amountStr)
	if err != nil {
		return nil, ErrMissingField
	}
	purpose := values.Get("custom_1")
	if purpose == "" {
		purpose = model.PurposeOrder
	}
	customerID, _ := strconv.ParseUint(values.Get("custom_2"), 10, 64)

	return &VerifiedPayment{
		Provider:    g.Name(),
		PaymentID:   paymentID,
		Reference:   orderID,
		AmountCents: amount,
		Currency:    currency,
		StatusCode:  statusCode,
		Succeeded:   statusCode == payHereSuccess,
		Purpose:     purpose,
		CustomerID:  customerID,
		Raw:         values,
	}, nil
}

// md5Upper is the building block of the chain: hex MD5, upper-cased.
func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
