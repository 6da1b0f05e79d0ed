// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPaidEvent is published when a verified gateway notification
// moves an order to PAID. It carries enough for downstream consumers
// to log, notify, or trigger fulfilment without querying the primary
// database.
type OrderPaidEvent struct {
	OrderID     uint64 `json:"order_id"`
	PublicCode  string `json:"public_code"`
	UserID      uint64 `json:"user_id"`
	Provider    string `json:"provider"`
	PaymentID   string `json:"payment_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	PaidAt      string `json:"paid_at"`
}

// PaymentAnomalyEvent is published when a verified notification could
// not be applied, e.g. payment arrived for an order that was already
// cancelled. Operators act on these; the engine never retries them.
type PaymentAnomalyEvent struct {
	RecordID    uint64 `json:"record_id"`
	Provider    string `json:"provider"`
	PaymentID   string `json:"payment_id"`
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
	OccurredAt  string `json:"occurred_at"`
}
