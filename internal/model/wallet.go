package model

import "time"

// Wallet transaction reason codes.  Every ledger entry names why the
// balance moved.
const (
	ReasonGatewayTopUp = "GATEWAY_TOPUP" // verified gateway notification credited the wallet
	ReasonAdminAdjust  = "ADMIN_ADJUST"  // manual operator correction
	ReasonOrderPayment = "ORDER_PAYMENT" // order settled from wallet balance
	ReasonRefund       = "REFUND"        // credit returned after a cancellation
)

// WalletTransaction is one entry of the per-user credit ledger.  The
// ledger is append-only: entries are never updated or deleted, and a
// user's balance is always the sum of their entries.  Corrections
// are made with new entries of the opposite sign.
type WalletTransaction struct {
	ID          uint64    // wallet_transactions.id
	UserID      uint64    // wallet_transactions.user_id
	AmountCents int64     // wallet_transactions.amount_cents, signed (credits > 0, debits < 0)
	Reason      string    // wallet_transactions.reason
	Reference   string    // wallet_transactions.reference (payment id, order code, ...)
	ActorID     uint64    // wallet_transactions.actor_id (0 = system)
	CreatedAt   time.Time // wallet_transactions.created_at
}
