package domain

import (
	"github.com/google/uuid"
)

// InventoryItem carries the authoritative stock counters for one sellable
// item. Items either track counters directly (no variants) or decompose into
// variants, each with its own counters; never both.
type InventoryItem struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Stock         int       `json:"stock" db:"stock"`
	ReservedStock int       `json:"reserved_stock" db:"reserved_stock"`
	Active        bool      `json:"active" db:"active"`
	Variants      []Variant `json:"variants,omitempty"`
}

type Variant struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ItemID        uuid.UUID `json:"item_id" db:"item_id"`
	Label         string    `json:"label" db:"label"`
	Stock         int       `json:"stock" db:"stock"`
	ReservedStock int       `json:"reserved_stock" db:"reserved_stock"`
}

func (i *InventoryItem) HasVariants() bool {
	return len(i.Variants) > 0
}

// Available is stock minus reservations, clamped at zero. For a variant item
// it is the sum across variants.
func (i *InventoryItem) Available() int {
	if i.HasVariants() {
		total := 0
		for _, v := range i.Variants {
			total += v.Available()
		}
		return total
	}
	avail := i.Stock - i.ReservedStock
	if avail < 0 {
		return 0
	}
	return avail
}

func (v *Variant) Available() int {
	avail := v.Stock - v.ReservedStock
	if avail < 0 {
		return 0
	}
	return avail
}

// StockSnapshot is the unit handed to the persistence writer after a counter
// change. VariantID is uuid.Nil for item-level counters. Seq orders snapshots
// of the same item; the writer discards any snapshot older than the last one
// it applied to the same counters.
type StockSnapshot struct {
	ItemID        uuid.UUID `json:"item_id"`
	VariantID     uuid.UUID `json:"variant_id,omitempty"`
	Stock         int       `json:"stock"`
	ReservedStock int       `json:"reserved_stock"`
	Seq           uint64    `json:"seq"`
}
