package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/conference-commerce/internal/model"
)

// mysqlDuplicateEntry is the server error code for a unique key
// violation.
const mysqlDuplicateEntry = 1062

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// SeatRepo persists banquet seat bookings. A stored booking is
// always active: releasing a seat deletes the row, so the plain
// unique key on (table_no, seat_no) is the whole concurrency story.
// Two users racing for the same seat resolve at the index, and the
// loser's entire batch rolls back.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// Book inserts all requested seats for the user in one transaction,
// re-checking the quota against the user's committed bookings inside
// the same transaction. Any unique key collision aborts the batch
// with ErrSeatTaken, and a quota overrun aborts it with
// ErrQuotaExceeded; no subset of the request survives.
func (r *SeatRepo) Book(ctx context.Context, userID uint64, seats []model.SeatRef, quota int) ([]model.SeatBooking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const countQ = `SELECT COUNT(*) FROM seat_bookings WHERE user_id = ? FOR UPDATE`
	var active int
	if err := tx.QueryRowContext(ctx, countQ, userID).Scan(&active); err != nil {
		return nil, err
	}
	if active+len(seats) > quota {
		return nil, ErrQuotaExceeded
	}

	query := `INSERT INTO seat_bookings (user_id, table_no, seat_no) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, userID, s.TableNo, s.SeatNo)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateEntry(err) {
			return nil, ErrSeatTaken
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.BookingsByUser(ctx, userID)
}

// Release deletes one of the user's bookings. Releasing a seat the
// user does not hold returns ErrNotFound; a seat held by someone
// else is indistinguishable on purpose.
func (r *SeatRepo) Release(ctx context.Context, userID uint64, seat model.SeatRef) error {
	const q = `DELETE FROM seat_bookings WHERE user_id = ? AND table_no = ? AND seat_no = ?`
	res, err := r.db.ExecContext(ctx, q, userID, seat.TableNo, seat.SeatNo)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// BookingsByUser returns the user's active bookings ordered by table
// then seat.
func (r *SeatRepo) BookingsByUser(ctx context.Context, userID uint64) ([]model.SeatBooking, error) {
	const q = `SELECT id, user_id, table_no, seat_no, created_at FROM seat_bookings
	           WHERE user_id = ? ORDER BY table_no, seat_no`
	return r.list(ctx, q, userID)
}

// ListAll returns every active booking, the seat-map view.
func (r *SeatRepo) ListAll(ctx context.Context) ([]model.SeatBooking, error) {
	const q = `SELECT id, user_id, table_no, seat_no, created_at FROM seat_bookings
	           ORDER BY table_no, seat_no`
	return r.list(ctx, q)
}

// CountByUser reports how many seats the user currently holds.
func (r *SeatRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM seat_bookings WHERE user_id = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

func (r *SeatRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.SeatBooking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.SeatBooking, 0)
	for rows.Next() {
		var b model.SeatBooking
		if err := rows.Scan(&b.ID, &b.UserID, &b.TableNo, &b.SeatNo, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
