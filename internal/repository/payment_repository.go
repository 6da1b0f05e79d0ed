package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/conference-commerce/internal/model"
)

// PaymentRepo persists one row per gateway notification. The unique
// key on (provider, payment_id) carries webhook idempotency: the
// first insert wins, and every replay of the same notification
// surfaces ErrDuplicateNotification instead of a second row.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Insert records a verified notification. It returns
// ErrDuplicateNotification when a row for the same provider and
// payment id already exists.
func (r *PaymentRepo) Insert(ctx context.Context, rec *model.PaymentRecord) error {
	const q = `INSERT INTO payment_records
	           (provider, payment_id, order_id, status_code, amount_cents, currency, purpose, raw_payload, processed, anomaly)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rec.Provider, rec.PaymentID, rec.OrderID, rec.StatusCode, rec.AmountCents,
		rec.Currency, rec.Purpose, rec.RawPayload, rec.Processed, rec.Anomaly,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateNotification
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// MarkProcessed flags a record whose business effect has been
// applied. A record left unprocessed with an empty anomaly marks a
// notification that crashed between insert and effect, the set an
// operator replays after an outage.
func (r *PaymentRepo) MarkProcessed(ctx context.Context, id uint64) error {
	const q = `UPDATE payment_records SET processed = 1 WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// FlagAnomaly records why a verified notification could not be
// applied, e.g. the order was already cancelled when payment
// arrived. Anomalous records are kept for operator review, never
// retried automatically.
func (r *PaymentRepo) FlagAnomaly(ctx context.Context, id uint64, reason string) error {
	const q = `UPDATE payment_records SET anomaly = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, reason, id)
	return err
}

// ListAnomalies returns every record flagged with an anomaly, newest
// first, for the operator review endpoint.
func (r *PaymentRepo) ListAnomalies(ctx context.Context) ([]model.PaymentRecord, error) {
	const q = `SELECT id, provider, payment_id, order_id, status_code, amount_cents, currency, purpose, raw_payload, processed, anomaly, created_at
	           FROM payment_records WHERE anomaly <> '' ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recs := make([]model.PaymentRecord, 0)
	for rows.Next() {
		var rec model.PaymentRecord
		var orderID sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Provider, &rec.PaymentID, &orderID, &rec.StatusCode,
			&rec.AmountCents, &rec.Currency, &rec.Purpose, &rec.RawPayload, &rec.Processed, &rec.Anomaly, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if orderID.Valid {
			oid := uint64(orderID.Int64)
			rec.OrderID = &oid
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
