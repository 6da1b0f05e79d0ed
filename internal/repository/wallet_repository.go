package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/conference-commerce/internal/model"
)

// WalletRepo persists the append-only wallet ledger. Balances are
// never stored; they are always the sum of a user's transaction
// amounts, so a credit and its later debit reconstruct the full
// history. Rows are inserted and read, never updated or deleted.
type WalletRepo struct {
	db *sql.DB
}

// NewWalletRepo returns a new WalletRepo bound to the given database.
func NewWalletRepo(db *sql.DB) *WalletRepo { return &WalletRepo{db: db} }

// AppendCredit appends a positive ledger entry. The amount must
// already be validated as positive by the caller.
func (r *WalletRepo) AppendCredit(ctx context.Context, txn *model.WalletTransaction) error {
	const q = `INSERT INTO wallet_transactions (user_id, amount_cents, reason, reference, actor_id)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, txn.UserID, txn.AmountCents, txn.Reason, txn.Reference, txn.ActorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	txn.ID = uint64(id)
	return nil
}

// AppendDebit appends a negative ledger entry after verifying the
// balance inside one transaction. The SELECT ... FOR UPDATE
// serializes concurrent debits against the same user, so two debits
// racing for the last funds cannot both pass the balance check.
// AmountCents on the input must be negative.
func (r *WalletRepo) AppendDebit(ctx context.Context, txn *model.WalletTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const balQ = `SELECT COALESCE(SUM(amount_cents), 0) FROM wallet_transactions
	              WHERE user_id = ? FOR UPDATE`
	var balance int64
	if err := tx.QueryRowContext(ctx, balQ, txn.UserID).Scan(&balance); err != nil {
		return err
	}
	if balance+txn.AmountCents < 0 {
		return ErrInsufficientBalance
	}

	const q = `INSERT INTO wallet_transactions (user_id, amount_cents, reason, reference, actor_id)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, txn.UserID, txn.AmountCents, txn.Reason, txn.Reference, txn.ActorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	txn.ID = uint64(id)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Balance returns the user's current balance, the sum over their
// ledger entries. A user with no entries has balance zero.
func (r *WalletRepo) Balance(ctx context.Context, userID uint64) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents), 0) FROM wallet_transactions WHERE user_id = ?`
	var balance int64
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&balance)
	return balance, err
}

// TransactionsByUser returns the user's ledger newest first.
func (r *WalletRepo) TransactionsByUser(ctx context.Context, userID uint64) ([]model.WalletTransaction, error) {
	const q = `SELECT id, user_id, amount_cents, reason, reference, actor_id, created_at
	           FROM wallet_transactions WHERE user_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := make([]model.WalletTransaction, 0)
	for rows.Next() {
		var t model.WalletTransaction
		var ref sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.AmountCents, &t.Reason, &ref, &t.ActorID, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Reference = ref.String
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
