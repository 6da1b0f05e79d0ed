package service

import (
	"context"
	"log"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/repository"
)

// WalletService maintains the per-user credit ledger and settles
// orders from wallet balance.
type WalletService struct {
	wallet WalletStore
	orders OrderStore
}

// NewWalletService returns a WalletService over the given stores.
func NewWalletService(wallet WalletStore, orders OrderStore) *WalletService {
	return &WalletService{wallet: wallet, orders: orders}
}

// Balance returns the user's current balance in cents.
func (s *WalletService) Balance(ctx context.Context, userID uint64) (int64, error) {
	return s.wallet.Balance(ctx, userID)
}

// History returns the user's ledger entries newest first.
func (s *WalletService) History(ctx context.Context, userID uint64) ([]model.WalletTransaction, error) {
	return s.wallet.TransactionsByUser(ctx, userID)
}

// Adjust appends an operator correction to a user's ledger. The
// direction defaults to credit; debits go through the balance check
// like any other debit, so an adjustment can never drive a balance
// negative.
func (s *WalletService) Adjust(ctx context.Context, actorID uint64, in model.WalletAdjustInput) (*model.WalletTransaction, error) {
	txn := &model.WalletTransaction{
		UserID:      in.UserID,
		AmountCents: in.AmountCents,
		Reason:      in.Reason,
		Reference:   in.Reference,
		ActorID:     actorID,
	}
	if in.Direction == "debit" {
		txn.AmountCents = -in.AmountCents
		if err := s.wallet.AppendDebit(ctx, txn); err != nil {
			return nil, err
		}
		return txn, nil
	}
	if err := s.wallet.AppendCredit(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// PayOrder settles one of the caller's orders from their wallet
// balance. The debit lands first; if the order then turns out to
// have left a payable status (a gateway payment or a cancel won the
// race) the debit is compensated with a refund entry, keeping the
// ledger append-only.
func (s *WalletService) PayOrder(ctx context.Context, userID uint64, orderID uint64) (*model.Order, error) {
	order, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrNotFound
	}
	payable := false
	for _, st := range model.PayableStatuses() {
		if order.Status == st {
			payable = true
			break
		}
	}
	if !payable {
		return nil, ErrNotPayable
	}

	debit := &model.WalletTransaction{
		UserID:      userID,
		AmountCents: -order.TotalCents,
		Reason:      model.ReasonOrderPayment,
		Reference:   order.PublicCode,
		ActorID:     userID,
	}
	if err := s.wallet.AppendDebit(ctx, debit); err != nil {
		return nil, err
	}

	applied, err := s.orders.Transition(ctx, order.ID, model.PayableStatuses(), model.OrderPaid, userID)
	if err == nil && !applied {
		err = ErrNotPayable
	}
	if err != nil {
		refund := &model.WalletTransaction{
			UserID:      userID,
			AmountCents: order.TotalCents,
			Reason:      model.ReasonRefund,
			Reference:   order.PublicCode,
			ActorID:     0,
		}
		if rerr := s.wallet.AppendCredit(ctx, refund); rerr != nil {
			log.Printf("wallet: refund after failed payment of %s for user %d failed: %v", order.PublicCode, userID, rerr)
		}
		return nil, err
	}
	return s.orders.ByID(ctx, order.ID)
}
