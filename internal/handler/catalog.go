// Package handler exposes the HTTP surface of the commerce engine.
// This file defines the public catalog browsing endpoints.  Catalog
// routes require no authentication; attendees browse merchandise and
// packs before logging in to order.  Internal identifiers and
// timestamps are filtered from responses.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/repository"
)

// CatalogHandler serves read-only merchandise and pack listings.
type CatalogHandler struct {
	Catalog *repository.CatalogRepo // provides access to items and packs
}

// NewCatalogHandler constructs a CatalogHandler.  The repository must
// be non-nil.
func NewCatalogHandler(catalog *repository.CatalogRepo) *CatalogHandler {
	if catalog == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: catalog}
}

// VariantView is one (size, color) combination of an item together
// with its remaining stock.
type VariantView struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
	Stock int    `json:"stock"`
}

// ItemView represents a catalog item exposed via the public API.  It
// contains only safe fields.
type ItemView struct {
	Code           string        `json:"code"`
	Name           string        `json:"name"`
	UnitPriceCents int64         `json:"unit_price_cents"`
	Variants       []VariantView `json:"variants"`
}

// PackComponentView names one component of a pack and the quantity a
// single pack contains.
type PackComponentView struct {
	ItemCode string `json:"item_code"`
	Quantity int    `json:"quantity"`
}

// PackView represents a pack exposed via the public API.
// PrePriceCents is omitted when the pack was never discounted.
type PackView struct {
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	PriceCents    int64               `json:"price_cents"`
	PrePriceCents int64               `json:"pre_price_cents,omitempty"`
	Items         []PackComponentView `json:"items"`
}

func itemView(it model.Item) ItemView {
	out := ItemView{
		Code:           it.Code,
		Name:           it.Name,
		UnitPriceCents: it.UnitPriceCents,
		Variants:       make([]VariantView, 0, len(it.Variants)),
	}
	for _, v := range it.Variants {
		out.Variants = append(out.Variants, VariantView{Size: v.Size, Color: v.Color, Stock: v.Stock})
	}
	return out
}

func packView(p model.Pack) PackView {
	out := PackView{
		Code:          p.Code,
		Name:          p.Name,
		PriceCents:    p.PriceCents,
		PrePriceCents: p.PrePriceCents,
		Items:         make([]PackComponentView, 0, len(p.Items)),
	}
	for _, pi := range p.Items {
		out.Items = append(out.Items, PackComponentView{ItemCode: pi.ItemCode, Quantity: pi.Quantity})
	}
	return out
}

// ListItems handles GET /v1/catalog/items.  Inactive items are
// omitted from the listing; they still resolve by code so that old
// order snapshots remain inspectable.
func (h *CatalogHandler) ListItems(c echo.Context) error {
	items, err := h.Catalog.ListItems(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		if !it.Active {
			continue
		}
		out = append(out, itemView(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetItem handles GET /v1/catalog/items/:code.
func (h *CatalogHandler) GetItem(c echo.Context) error {
	it, err := h.Catalog.ItemByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, itemView(*it))
}

// ListPacks handles GET /v1/catalog/packs.
func (h *CatalogHandler) ListPacks(c echo.Context) error {
	packs, err := h.Catalog.ListPacks(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]PackView, 0, len(packs))
	for _, p := range packs {
		if !p.Active {
			continue
		}
		out = append(out, packView(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"packs": out})
}

// GetPack handles GET /v1/catalog/packs/:code.
func (h *CatalogHandler) GetPack(c echo.Context) error {
	p, err := h.Catalog.PackByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, packView(*p))
}
