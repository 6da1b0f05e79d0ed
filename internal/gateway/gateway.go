// Package gateway implements the outbound checkout and inbound
// notification signing schemes of the supported payment providers.
// Building a checkout is pure computation: no network calls happen
// here, only canonicalization and cryptography.  Verification is a
// hard authentication boundary: a notification whose recomputed
// signature does not match is rejected and never processed.
package gateway

import (
	"errors"
	"math"
	"net/url"
	"strconv"
)

// ErrInvalidSignature is returned when a notification's recomputed
// signature differs from the received one.  Callers must drop the
// payload; it is treated as a potential attack, never retried.
var ErrInvalidSignature = errors.New("notification signature mismatch")

// ErrMissingField is returned when a notification lacks a field that
// the provider's scheme requires for verification.
var ErrMissingField = errors.New("notification missing required field")

// CheckoutRequest carries everything a provider needs to build a
// hosted-checkout payload.  Amounts are integer cents; each provider
// formats them at its own boundary.
type CheckoutRequest struct {
	Reference   string // order public code or wallet top-up reference
	AmountCents int64
	Currency    string // ISO 4217; empty selects the provider default
	Purpose     string // model.PurposeOrder or model.PurposeWallet
	CustomerID  uint64
	FirstName   string
	LastName    string
	Email       string
}

// Checkout is the result of building a checkout: the gateway's
// hosted page URL and the flat string fields the client browser
// POSTs to it.
type Checkout struct {
	ActionURL string            `json:"action_url"`
	Fields    map[string]string `json:"fields"`
}

// VerifiedPayment is the provider-independent view of an inbound
// notification whose signature has been verified.
type VerifiedPayment struct {
	Provider    string
	PaymentID   string // provider-assigned id, the idempotency key
	Reference   string // our reference number echoed back
	AmountCents int64
	Currency    string
	StatusCode  string // provider-specific status code verbatim
	Succeeded   bool   // provider reported a successful capture
	Purpose     string // decoded from the custom metadata field
	CustomerID  uint64 // wallet top-ups: the user to credit
	Raw         url.Values
}

// Gateway is implemented once per provider.
type Gateway interface {
	// Name returns the provider key used in routes and records.
	Name() string
	// BuildCheckout produces the signed hosted-checkout payload.
	BuildCheckout(req CheckoutRequest) (*Checkout, error)
	// VerifyNotification authenticates an inbound notification and
	// maps it to a VerifiedPayment.  It returns ErrInvalidSignature
	// when the recomputed signature does not match.
	VerifyNotification(values url.Values) (*VerifiedPayment, error)
}

// parseAmountCents converts a gateway decimal string like "1234.50"
// into cents, rounding to absorb float formatting noise.
func parseAmountCents(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}
