package model

import "time"

// Item is a sellable unit from the merchandise catalog.  Items are
// identified externally by their code.  They are never deleted;
// admin tooling flips Active off instead so that historical order
// snapshots always resolve.
//
// Fields:
//  ID             – primary key identifier.
//  Code           – stable external identifier, unique.
//  Name           – display name.
//  UnitPriceCents – current catalog price in cents.
//  Active         – whether the item can still be ordered.
//  Variants       – per-(size,color) stock counters.
type Item struct {
	ID             uint64        // items.id
	Code           string        // items.code
	Name           string        // items.name
	UnitPriceCents int64         // items.unit_price_cents
	Active         bool          // items.active
	Variants       []ItemVariant // rows from item_variants
	CreatedAt      time.Time     // items.created_at
	UpdatedAt      time.Time     // items.updated_at
}

// ItemVariant carries the stock counter for one (size, color)
// combination of an item.  Variant-less items have exactly one row
// with empty size and color.  Stock never goes negative; the
// repository enforces this with conditional decrements.
type ItemVariant struct {
	ID     uint64 // item_variants.id
	ItemID uint64 // item_variants.item_id
	Size   string // item_variants.size ("" for aggregate counter)
	Color  string // item_variants.color ("" for aggregate counter)
	Stock  int    // item_variants.stock
}

// Variant returns the variant matching the given size and color, or
// nil when the item has no such combination.
func (i *Item) Variant(size, color string) *ItemVariant {
	for idx := range i.Variants {
		if i.Variants[idx].Size == size && i.Variants[idx].Color == color {
			return &i.Variants[idx]
		}
	}
	return nil
}

// Pack bundles several items under a single code and price.  Booking
// a pack reserves the summed quantities of its components atomically
// with the order that requested it.
//
// Fields:
//  ID            – primary key identifier.
//  Code          – stable external identifier, unique.
//  Name          – display name.
//  PriceCents    – pack price in cents, possibly discounted.
//  PrePriceCents – price before discount; 0 when never discounted.
//  Active        – whether the pack can still be ordered.
//  Items         – ordered component list.
type Pack struct {
	ID            uint64     // packs.id
	Code          string     // packs.code
	Name          string     // packs.name
	PriceCents    int64      // packs.price_cents
	PrePriceCents int64      // packs.pre_price_cents
	Active        bool       // packs.active
	Items         []PackItem // rows from pack_items
	CreatedAt     time.Time  // packs.created_at
	UpdatedAt     time.Time  // packs.updated_at
}

// PackItem references one component of a pack and how many units of
// it a single pack contains.
type PackItem struct {
	ID       uint64 // pack_items.id
	PackID   uint64 // pack_items.pack_id
	ItemCode string // pack_items.item_code
	Quantity int    // pack_items.quantity
}
