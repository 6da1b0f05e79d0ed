package model

import "time"

// Payment purposes carried through the gateways' custom metadata
// fields.  The purpose decides which financial effect a verified
// notification produces, instead of inferring it from magic amounts.
const (
	PurposeOrder  = "order"  // notification settles an order
	PurposeWallet = "wallet" // notification funds a wallet top-up (delegate fee)
)

// PaymentRecord stores one verified gateway notification.  The
// provider-assigned payment id is the idempotency key: the unique
// index on (provider, payment_id) makes the first insert win and
// turns every redelivery into a no-op.  The raw verified payload is
// retained verbatim for manual reconciliation.
type PaymentRecord struct {
	ID          uint64    // payment_records.id
	Provider    string    // payment_records.provider
	PaymentID   string    // payment_records.payment_id (provider-assigned)
	OrderID     *uint64   // payment_records.order_id, nullable for wallet top-ups
	StatusCode  string    // payment_records.status_code (provider-specific)
	AmountCents int64     // payment_records.amount_cents
	Currency    string    // payment_records.currency
	Purpose     string    // payment_records.purpose
	RawPayload  string    // payment_records.raw_payload (urlencoded form body)
	Processed   bool      // payment_records.processed (financial effect applied)
	Anomaly     string    // payment_records.anomaly ("" when none)
	CreatedAt   time.Time // payment_records.created_at
}
