package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/iliyamo/conference-commerce/internal/gateway"
	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/queue"
	"github.com/iliyamo/conference-commerce/internal/repository"
)

// Result classifies the outcome of reconciling one notification.
type Result string

const (
	// ResultApplied means the financial effect was applied now.
	ResultApplied Result = "applied"
	// ResultAlreadyProcessed means this exact notification was seen
	// before; nothing changed.
	ResultAlreadyProcessed Result = "already_processed"
	// ResultRecorded means the notification was verified and stored
	// but carried a non-success status, so no effect was due.
	ResultRecorded Result = "recorded"
	// ResultAnomaly means the notification was verified and stored
	// but its effect could not be applied; the record is flagged for
	// operator review.
	ResultAnomaly Result = "anomaly"
)

// Reconciler turns verified gateway notifications into their
// financial effect exactly once. The order of operations is the
// invariant: verify, then insert the record (the idempotency gate),
// then apply the effect, then mark processed. A crash between insert
// and effect leaves an unprocessed record an operator can replay; a
// redelivery at any point hits the unique key and stops.
type Reconciler struct {
	gateways map[string]gateway.Gateway
	payments PaymentStore
	orders   OrderStore
	wallet   WalletStore
	events   EventPublisher
}

// NewReconciler wires a Reconciler over the given stores.
func NewReconciler(gateways map[string]gateway.Gateway, payments PaymentStore, orders OrderStore, wallet WalletStore, events EventPublisher) *Reconciler {
	return &Reconciler{gateways: gateways, payments: payments, orders: orders, wallet: wallet, events: events}
}

// Reconcile processes one raw notification form for the named
// provider. Signature failures surface as gateway.ErrInvalidSignature
// and leave no trace beyond the caller's log: an unauthenticated
// payload must not be able to create rows.
func (r *Reconciler) Reconcile(ctx context.Context, provider string, form url.Values) (Result, error) {
	g, ok := r.gateways[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	vp, err := g.VerifyNotification(form)
	if err != nil {
		return "", err
	}

	rec := &model.PaymentRecord{
		Provider:    vp.Provider,
		PaymentID:   vp.PaymentID,
		StatusCode:  vp.StatusCode,
		AmountCents: vp.AmountCents,
		Currency:    vp.Currency,
		Purpose:     vp.Purpose,
		RawPayload:  vp.Raw.Encode(),
	}

	var order *model.Order
	if vp.Purpose == model.PurposeOrder {
		order, err = r.orders.ByPublicCode(ctx, vp.Reference)
		if err != nil && err != repository.ErrNotFound {
			return "", err
		}
		if order != nil {
			oid := order.ID
			rec.OrderID = &oid
		}
	}

	if err := r.payments.Insert(ctx, rec); err != nil {
		if err == repository.ErrDuplicateNotification {
			log.Printf("reconcile: %s payment %s redelivered, ignoring", provider, vp.PaymentID)
			return ResultAlreadyProcessed, nil
		}
		return "", err
	}

	if !vp.Succeeded {
		// Declines and cancellations are kept for the audit trail but
		// have no financial effect.
		if err := r.payments.MarkProcessed(ctx, rec.ID); err != nil {
			return "", err
		}
		return ResultRecorded, nil
	}

	switch vp.Purpose {
	case model.PurposeWallet:
		return r.applyWalletTopUp(ctx, rec, vp)
	default:
		return r.applyOrderPayment(ctx, rec, vp, order)
	}
}

func (r *Reconciler) applyWalletTopUp(ctx context.Context, rec *model.PaymentRecord, vp *gateway.VerifiedPayment) (Result, error) {
	if vp.CustomerID == 0 {
		return r.flag(ctx, rec, vp, "wallet top-up without a user id")
	}
	txn := &model.WalletTransaction{
		UserID:      vp.CustomerID,
		AmountCents: vp.AmountCents,
		Reason:      model.ReasonGatewayTopUp,
		Reference:   vp.Provider + ":" + vp.PaymentID,
	}
	if err := r.wallet.AppendCredit(ctx, txn); err != nil {
		return "", err
	}
	if err := r.payments.MarkProcessed(ctx, rec.ID); err != nil {
		return "", err
	}
	return ResultApplied, nil
}

func (r *Reconciler) applyOrderPayment(ctx context.Context, rec *model.PaymentRecord, vp *gateway.VerifiedPayment, order *model.Order) (Result, error) {
	if order == nil {
		return r.flag(ctx, rec, vp, "no order matches reference "+vp.Reference)
	}
	if vp.AmountCents != order.TotalCents {
		return r.flag(ctx, rec, vp, fmt.Sprintf("amount %d differs from order total %d", vp.AmountCents, order.TotalCents))
	}

	applied, err := r.orders.Transition(ctx, order.ID, model.PayableStatuses(), model.OrderPaid, 0)
	if err != nil {
		return "", err
	}
	if !applied {
		fresh, ferr := r.orders.ByID(ctx, order.ID)
		status := order.Status
		if ferr == nil {
			status = fresh.Status
		}
		return r.flag(ctx, rec, vp, "payment arrived for order in status "+status)
	}

	if err := r.payments.MarkProcessed(ctx, rec.ID); err != nil {
		return "", err
	}
	if err := r.events.PublishOrderPaid(ctx, queue.OrderPaidEvent{
		OrderID:     order.ID,
		PublicCode:  order.PublicCode,
		UserID:      order.UserID,
		Provider:    vp.Provider,
		PaymentID:   vp.PaymentID,
		AmountCents: vp.AmountCents,
		Currency:    vp.Currency,
		PaidAt:      time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("reconcile: publish order.paid for %s failed: %v", order.PublicCode, err)
	}
	return ResultApplied, nil
}

// flag marks the stored record anomalous and emits the review event.
// The record stays unprocessed so operators can find it either way.
func (r *Reconciler) flag(ctx context.Context, rec *model.PaymentRecord, vp *gateway.VerifiedPayment, reason string) (Result, error) {
	if err := r.payments.FlagAnomaly(ctx, rec.ID, reason); err != nil {
		return "", err
	}
	if err := r.events.PublishPaymentAnomaly(ctx, queue.PaymentAnomalyEvent{
		RecordID:    rec.ID,
		Provider:    vp.Provider,
		PaymentID:   vp.PaymentID,
		Reference:   vp.Reference,
		AmountCents: vp.AmountCents,
		Reason:      reason,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("reconcile: publish payment.anomaly for %s failed: %v", vp.PaymentID, err)
	}
	log.Printf("reconcile: anomaly on %s payment %s: %s", vp.Provider, vp.PaymentID, reason)
	return ResultAnomaly, nil
}

// Anomalies lists flagged records for the operator endpoint.
func (r *Reconciler) Anomalies(ctx context.Context) ([]model.PaymentRecord, error) {
	return r.payments.ListAnomalies(ctx)
}
