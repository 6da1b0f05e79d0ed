package model

// Request bodies are parsed and validated at the boundary before any
// core logic runs.  Client-supplied prices never appear here: totals
// are always recomputed from the catalog server-side.

// OrderLineInput is one requested line of a new order.  Code may
// refer to an item or a pack; packs take no variant.
type OrderLineInput struct {
	Code     string `json:"code" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Size     string `json:"size" validate:"omitempty,max=16"`
	Color    string `json:"color" validate:"omitempty,max=32"`
}

// CreateOrderInput creates a new order in PENDING state.
type CreateOrderInput struct {
	Items []OrderLineInput `json:"items" validate:"required,min=1,dive"`
}

// ChangeOrderStatusInput drives the order state machine.
type ChangeOrderStatusInput struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED PAID DELIVERED CANCELLED"`
}

// BookSeatsInput books a batch of banquet seats for the caller's
// group.  The batch is all-or-nothing.
type BookSeatsInput struct {
	Seats []SeatRef `json:"seats" validate:"required,min=1,dive"`
}

// CheckoutInput asks a gateway for a hosted-checkout payload.  For
// purpose "order" the order is the amount authority; a client amount,
// when present, is only cross-checked.  For purpose "wallet" the
// amount is required and funds the caller's wallet.
type CheckoutInput struct {
	Purpose     string `json:"purpose" validate:"required,oneof=order wallet"`
	OrderID     uint64 `json:"order_id" validate:"required_if=Purpose order"`
	AmountCents int64  `json:"amount_cents" validate:"omitempty,gt=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}

// WalletAdjustInput is an operator credit or debit against a user's
// wallet ledger.
type WalletAdjustInput struct {
	UserID      uint64 `json:"user_id" validate:"required,gt=0"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Direction   string `json:"direction" validate:"omitempty,oneof=credit debit"`
	Reason      string `json:"reason" validate:"required,oneof=ADMIN_ADJUST REFUND"`
	Reference   string `json:"reference" validate:"omitempty,max=64"`
}
