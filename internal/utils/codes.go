package utils // package utils provides small helpers shared across handlers and services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewOrderCode returns a public order reference like ORD-9F2C41AB.
// The code travels to payment gateways as the reference number, so
// it must be unique and free of characters needing escaping.
func NewOrderCode() string {
	return "ORD-" + shortID()
}

// NewTopUpRef returns a reference for a wallet top-up checkout, e.g.
// WLT-4E8A01DC.  Top-ups have no order row, so this is the only
// identifier tying the gateway round trip together.
func NewTopUpRef() string {
	return "WLT-" + shortID()
}

// shortID takes the first segment of a v4 UUID and upper-cases it.
func shortID() string {
	u := uuid.NewString()
	return strings.ToUpper(strings.SplitN(u, "-", 2)[0])
}

// FormatCents renders an integer cent amount with exactly two
// decimal places, e.g. 123450 -> "1234.50".  Gateways hash this
// exact string, so the formatting must never vary.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
