package repository

import (
	"context"
	"database/sql"
)

// InventoryRepo owns every write to item_variants stock. Decrements
// are conditional: the WHERE clause requires enough remaining stock,
// so two concurrent reservations of the last unit can never both
// succeed. No row matched means insufficient stock, and the caller
// rolls back the enclosing transaction.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns a new InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// ReserveTx atomically decrements the stock of one item variant
// within the given transaction. It returns ErrInsufficientStock when
// the variant does not exist or its stock is below qty.
func (r *InventoryRepo) ReserveTx(ctx context.Context, tx *sql.Tx, itemCode, size, color string, qty int) error {
	const q = `UPDATE item_variants v
	           JOIN items i ON i.id = v.item_id
	           SET v.stock = v.stock - ?
	           WHERE i.code = ? AND v.size = ? AND v.color = ? AND v.stock >= ?`
	res, err := tx.ExecContext(ctx, q, qty, itemCode, size, color, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// ReleaseTx returns previously reserved stock to an item variant
// within the given transaction. Releasing against a variant that no
// longer exists returns ErrNotFound; the cancel flow treats that as
// a data problem, not a user error.
func (r *InventoryRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, itemCode, size, color string, qty int) error {
	const q = `UPDATE item_variants v
	           JOIN items i ON i.id = v.item_id
	           SET v.stock = v.stock + ?
	           WHERE i.code = ? AND v.size = ? AND v.color = ?`
	res, err := tx.ExecContext(ctx, q, qty, itemCode, size, color)
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

// Stock reports the remaining stock of one variant, mostly for
// admin inspection. It returns ErrNotFound for unknown variants.
func (r *InventoryRepo) Stock(ctx context.Context, itemCode, size, color string) (int, error) {
	const q = `SELECT v.stock FROM item_variants v
	           JOIN items i ON i.id = v.item_id
	           WHERE i.code = ? AND v.size = ? AND v.color = ?`
	var stock int
	err := r.db.QueryRowContext(ctx, q, itemCode, size, color).Scan(&stock)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}
