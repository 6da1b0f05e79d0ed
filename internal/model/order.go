package model

import "time"

// Order status values.  The happy path is linear:
// PENDING -> CONFIRMED -> PAID -> DELIVERED.  CANCELLED is terminal
// and normally reachable only before payment; moving a PAID order to
// CANCELLED is an operator action (refund handling lives outside
// this engine).
const (
	OrderPending   = "PENDING"
	OrderConfirmed = "CONFIRMED"
	OrderPaid      = "PAID"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// orderTransitions lists, per current status, the statuses an order
// may move to.  A transition to the current status is a no-op and is
// handled before this table is consulted.
var orderTransitions = map[string][]string{
	OrderPending:   {OrderConfirmed, OrderPaid, OrderCancelled},
	OrderConfirmed: {OrderPaid, OrderCancelled},
	OrderPaid:      {OrderDelivered, OrderCancelled},
	OrderDelivered: {},
	OrderCancelled: {},
}

// CanTransition reports whether an order may move from one status to
// another according to the state machine above.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionPrivileged reports whether a transition requires the
// orders:manage permission: marking an order DELIVERED and
// cancelling after payment are staff-only.
func TransitionPrivileged(from, to string) bool {
	if to == OrderDelivered {
		return true
	}
	return to == OrderCancelled && from == OrderPaid
}

// PayableStatuses returns the statuses from which a payment
// notification may move an order to PAID.  The conditional update
// over this set is what arbitrates a cancel-vs-pay race.
func PayableStatuses() []string {
	return []string{OrderPending, OrderConfirmed}
}

// Order is a user's purchase of items and packs.  Orders are never
// physically deleted; they only move through the status state
// machine, and every move records who performed it and when.
type Order struct {
	ID              uint64      // orders.id
	PublicCode      string      // orders.public_code, unique, used as gateway reference
	UserID          uint64      // orders.user_id
	Status          string      // orders.status
	TotalCents      int64       // orders.total_cents, recomputed server-side
	Items           []OrderItem // rows from order_items
	StatusChangedAt time.Time   // orders.status_changed_at
	StatusChangedBy uint64      // orders.status_changed_by (0 = system/reconciler)
	CreatedAt       time.Time   // orders.created_at
}

// OrderItem is an immutable snapshot of one order line taken at
// creation time.  Later catalog edits never alter these fields.
//
// A direct item purchase has PackCode == "".  A pack purchase is
// stored as one priced line for the pack itself (ItemCode equal to
// PackCode) plus one zero-priced line per component carrying the
// reserved quantity.  Stock reservation and release apply to every
// line whose ItemCode differs from its PackCode.
type OrderItem struct {
	ID             uint64 // order_items.id
	OrderID        uint64 // order_items.order_id
	ItemCode       string // order_items.item_code (snapshot)
	Name           string // order_items.name (snapshot)
	UnitPriceCents int64  // order_items.unit_price_cents (snapshot)
	Quantity       int    // order_items.quantity
	Size           string // order_items.size (chosen variant)
	Color          string // order_items.color (chosen variant)
	PackCode       string // order_items.pack_code ("" for direct purchases)
}

// ReservesStock reports whether this line consumes inventory.  Pack
// price lines are bookkeeping only; their components carry the
// reserved quantities.
func (l OrderItem) ReservesStock() bool {
	return l.PackCode == "" || l.ItemCode != l.PackCode
}
