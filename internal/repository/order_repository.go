package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/conference-commerce/internal/model"
)

// OrderRepo persists orders and their line snapshots. Creation and
// cancellation run inside a single transaction together with the
// stock mutations, so an order and its reservations either both
// exist or neither does.
type OrderRepo struct {
	db        *sql.DB
	inventory *InventoryRepo
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB, inventory *InventoryRepo) *OrderRepo {
	return &OrderRepo{db: db, inventory: inventory}
}

// Create inserts the order, its line snapshots and reserves stock
// for every stock-bearing line, all in one transaction. When any
// line cannot be reserved the whole transaction rolls back and
// ErrInsufficientStock is returned; no partial order survives.
func (r *OrderRepo) Create(ctx context.Context, order *model.Order) error {
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

	for _, line := range order.Items {
		if !line.ReservesStock() {
			continue
		}
		if err := r.inventory.ReserveTx(ctx, tx, line.ItemCode, line.Size, line.Color, line.Quantity); err != nil {
			return err
		}
	}

	const q = `INSERT INTO orders (public_code, user_id, status, total_cents, status_changed_at, status_changed_by)
	           VALUES (?, ?, ?, ?, UTC_TIMESTAMP(), ?)`
	res, err := tx.ExecContext(ctx, q, order.PublicCode, order.UserID, order.Status, order.TotalCents, order.StatusChangedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = uint64(id)

	if len(order.Items) > 0 {
		query := `INSERT INTO order_items (order_id, item_code, name, unit_price_cents, quantity, size, color, pack_code) VALUES `
		args := make([]interface{}, 0, len(order.Items)*8)
		for i := range order.Items {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?, ?, ?)"
			l := &order.Items[i]
			l.OrderID = order.ID
			args = append(args, order.ID, l.ItemCode, l.Name, l.UnitPriceCents, l.Quantity, l.Size, l.Color, l.PackCode)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ByID returns an order with its lines. ErrNotFound when absent.
func (r *OrderRepo) ByID(ctx context.Context, id uint64) (*model.Order, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

// ByPublicCode returns an order by its public reference code, the
// identifier gateways echo back on payment notifications.
func (r *OrderRepo) ByPublicCode(ctx context.Context, code string) (*model.Order, error) {
	return r.get(ctx, `WHERE public_code = ?`, code)
}

func (r *OrderRepo) get(ctx context.Context, where string, arg interface{}) (*model.Order, error) {
	q := `SELECT id, public_code, user_id, status, total_cents, status_changed_at, status_changed_by, created_at
	      FROM orders ` + where
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&o.ID, &o.PublicCode, &o.UserID, &o.Status, &o.TotalCents, &o.StatusChangedAt, &o.StatusChangedBy, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.linesFor(ctx, []uint64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []model.OrderItem{}
	}
	return &o, nil
}

// ListByUser returns a user's orders newest first, lines attached.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	const q = `SELECT id, public_code, user_id, status, total_cents, status_changed_at, status_changed_by, created_at
	           FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.PublicCode, &o.UserID, &o.Status, &o.TotalCents, &o.StatusChangedAt, &o.StatusChangedBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Items = []model.OrderItem{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if ls := lines[orders[i].ID]; ls != nil {
			orders[i].Items = ls
		}
	}
	return orders, nil
}

func (r *OrderRepo) linesFor(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	placeholders := make([]string, 0, len(orderIDs))
	args := make([]interface{}, 0, len(orderIDs))
	for _, id := range orderIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, order_id, item_code, name, unit_price_cents, quantity, size, color, pack_code
	      FROM order_items WHERE order_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY order_id, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]model.OrderItem)
	for rows.Next() {
		var l model.OrderItem
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemCode, &l.Name, &l.UnitPriceCents, &l.Quantity, &l.Size, &l.Color, &l.PackCode); err != nil {
			return nil, err
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

// Transition moves an order to a new status only when its current
// status is one of from. The conditional UPDATE is the arbiter under
// concurrency: whichever competing writer matches the row first wins
// and the loser sees applied == false.
func (r *OrderRepo) Transition(ctx context.Context, orderID uint64, from []string, to string, actorID uint64) (bool, error) {
	placeholders := make([]string, 0, len(from))
	args := []interface{}{to, actorID, orderID}
	for _, s := range from {
		placeholders = append(placeholders, "?")
		args = append(args, s)
	}
	q := `UPDATE orders SET status = ?, status_changed_at = UTC_TIMESTAMP(), status_changed_by = ?
	      WHERE id = ? AND status IN (` + strings.Join(placeholders, ",") + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Cancel flips the order to CANCELLED and returns every reserved
// line's stock, in one transaction. The conditional status UPDATE is
// the first-cancel guard: a second cancel matches no row, releases
// nothing, and reports applied == false.
func (r *OrderRepo) Cancel(ctx context.Context, order *model.Order, from []string, actorID uint64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	placeholders := make([]string, 0, len(from))
	args := []interface{}{model.OrderCancelled, actorID, order.ID}
	for _, s := range from {
		placeholders = append(placeholders, "?")
		args = append(args, s)
	}
	q := `UPDATE orders SET status = ?, status_changed_at = UTC_TIMESTAMP(), status_changed_by = ?
	      WHERE id = ? AND status IN (` + strings.Join(placeholders, ",") + `)`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	for _, line := range order.Items {
		if !line.ReservesStock() {
			continue
		}
		if err := r.inventory.ReleaseTx(ctx, tx, line.ItemCode, line.Size, line.Color, line.Quantity); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}
