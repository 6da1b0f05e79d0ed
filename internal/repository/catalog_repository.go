package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/conference-commerce/internal/model"
)

// CatalogRepo reads merchandise items, their variants and bundle
// packs. The catalog is read-mostly; stock mutations live in
// InventoryRepo so that the reservation path owns every write to
// item_variants.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListItems returns all active items with their variants attached.
// Variants are loaded in one query and folded onto their parent item
// so the catalog endpoint issues exactly two statements.
func (r *CatalogRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	const q = `SELECT id, code, name, unit_price_cents, active, created_at, updated_at
	           FROM items WHERE active = 1 ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Code, &it.Name, &it.UnitPriceCents, &it.Active, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.Variants = []model.ItemVariant{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]interface{}, 0, len(items))
	placeholders := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
		placeholders = append(placeholders, "?")
	}
	variantQ := `SELECT id, item_id, size, color, stock FROM item_variants
	             WHERE item_id IN (` + strings.Join(placeholders, ",") + `)
	             ORDER BY item_id, size, color`
	vrows, err := r.db.QueryContext(ctx, variantQ, ids...)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var v model.ItemVariant
		if err := vrows.Scan(&v.ID, &v.ItemID, &v.Size, &v.Color, &v.Stock); err != nil {
			return nil, err
		}
		if idx, ok := index[v.ItemID]; ok {
			items[idx].Variants = append(items[idx].Variants, v)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ItemByCode returns a single item, active or not, with its variants.
// It returns ErrNotFound when no item carries the code.
func (r *CatalogRepo) ItemByCode(ctx context.Context, code string) (*model.Item, error) {
	const q = `SELECT id, code, name, unit_price_cents, active, created_at, updated_at
	           FROM items WHERE code = ?`
	var it model.Item
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&it.ID, &it.Code, &it.Name, &it.UnitPriceCents, &it.Active, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	const variantQ = `SELECT id, item_id, size, color, stock FROM item_variants WHERE item_id = ? ORDER BY size, color`
	rows, err := r.db.QueryContext(ctx, variantQ, it.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	it.Variants = []model.ItemVariant{}
	for rows.Next() {
		var v model.ItemVariant
		if err := rows.Scan(&v.ID, &v.ItemID, &v.Size, &v.Color, &v.Stock); err != nil {
			return nil, err
		}
		it.Variants = append(it.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &it, nil
}

// ListPacks returns all active packs with their component lines.
func (r *CatalogRepo) ListPacks(ctx context.Context) ([]model.Pack, error) {
	const q = `SELECT id, code, name, price_cents, pre_price_cents, active, created_at, updated_at
	           FROM packs WHERE active = 1 ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packs := make([]model.Pack, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var p model.Pack
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.PrePriceCents, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Items = []model.PackItem{}
		index[p.ID] = len(packs)
		packs = append(packs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(packs) == 0 {
		return packs, nil
	}

	ids := make([]interface{}, 0, len(packs))
	placeholders := make([]string, 0, len(packs))
	for _, p := range packs {
		ids = append(ids, p.ID)
		placeholders = append(placeholders, "?")
	}
	lineQ := `SELECT id, pack_id, item_code, quantity FROM pack_items
	          WHERE pack_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY pack_id, item_code`
	lrows, err := r.db.QueryContext(ctx, lineQ, ids...)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var pi model.PackItem
		if err := lrows.Scan(&pi.ID, &pi.PackID, &pi.ItemCode, &pi.Quantity); err != nil {
			return nil, err
		}
		if idx, ok := index[pi.PackID]; ok {
			packs[idx].Items = append(packs[idx].Items, pi)
		}
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}
	return packs, nil
}

// PackByCode returns a single pack with its component lines. It
// returns ErrNotFound when no pack carries the code.
func (r *CatalogRepo) PackByCode(ctx context.Context, code string) (*model.Pack, error) {
	const q = `SELECT id, code, name, price_cents, pre_price_cents, active, created_at, updated_at
	           FROM packs WHERE code = ?`
	var p model.Pack
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.PrePriceCents, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	const lineQ = `SELECT id, pack_id, item_code, quantity FROM pack_items WHERE pack_id = ? ORDER BY item_code`
	rows, err := r.db.QueryContext(ctx, lineQ, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	p.Items = []model.PackItem{}
	for rows.Next() {
		var pi model.PackItem
		if err := rows.Scan(&pi.ID, &pi.PackID, &pi.ItemCode, &pi.Quantity); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, pi)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}
