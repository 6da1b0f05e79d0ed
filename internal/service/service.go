// Package service holds the business rules between the HTTP handlers
// and the persistence layer. Services depend on small store
// interfaces rather than the concrete MySQL repositories, so tests
// exercise the full rule set over an in-memory store without a
// database.
package service

import (
	"context"
	"errors"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/queue"
)

// ErrUnknownProvider is returned when a checkout or notification
// names a payment provider that is not configured.
var ErrUnknownProvider = errors.New("unknown payment provider")

// ErrInvalidSeat is returned when a booking request references a
// seat outside the venue layout or lists the same seat twice.
var ErrInvalidSeat = errors.New("invalid seat reference")

// ErrNotPayable is returned when a checkout targets an order whose
// status no longer accepts payment.
var ErrNotPayable = errors.New("order is not payable")

// ErrAmountMismatch is returned when a checkout request carries an
// amount that differs from the order's stored total. The stored
// total always wins; the client-sent amount is only a cross-check.
var ErrAmountMismatch = errors.New("amount does not match order total")

// CatalogStore reads items and packs.
type CatalogStore interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	ItemByCode(ctx context.Context, code string) (*model.Item, error)
	ListPacks(ctx context.Context) ([]model.Pack, error)
	PackByCode(ctx context.Context, code string) (*model.Pack, error)
}

// OrderStore persists orders atomically with their stock effects.
type OrderStore interface {
	Create(ctx context.Context, order *model.Order) error
	ByID(ctx context.Context, id uint64) (*model.Order, error)
	ByPublicCode(ctx context.Context, code string) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	Transition(ctx context.Context, orderID uint64, from []string, to string, actorID uint64) (bool, error)
	Cancel(ctx context.Context, order *model.Order, from []string, actorID uint64) (bool, error)
}

// SeatStore persists banquet seat bookings.
type SeatStore interface {
	Book(ctx context.Context, userID uint64, seats []model.SeatRef, quota int) ([]model.SeatBooking, error)
	Release(ctx context.Context, userID uint64, seat model.SeatRef) error
	BookingsByUser(ctx context.Context, userID uint64) ([]model.SeatBooking, error)
	ListAll(ctx context.Context) ([]model.SeatBooking, error)
	CountByUser(ctx context.Context, userID uint64) (int, error)
}

// WalletStore persists the append-only wallet ledger.
type WalletStore interface {
	AppendCredit(ctx context.Context, txn *model.WalletTransaction) error
	AppendDebit(ctx context.Context, txn *model.WalletTransaction) error
	Balance(ctx context.Context, userID uint64) (int64, error)
	TransactionsByUser(ctx context.Context, userID uint64) ([]model.WalletTransaction, error)
}

// PaymentStore persists gateway notification records.
type PaymentStore interface {
	Insert(ctx context.Context, rec *model.PaymentRecord) error
	MarkProcessed(ctx context.Context, id uint64) error
	FlagAnomaly(ctx context.Context, id uint64, reason string) error
	ListAnomalies(ctx context.Context) ([]model.PaymentRecord, error)
}

// EventPublisher emits domain events to the broker. Publish failures
// are advisory: callers log and continue.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event queue.OrderPaidEvent) error
	PublishPaymentAnomaly(ctx context.Context, event queue.PaymentAnomalyEvent) error
}
