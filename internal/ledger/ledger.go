// Package ledger holds the authoritative (stock, reservedStock) counters per
// inventory item and variant. It is the single serialization point for stock:
// AdjustReservation re-validates under a per-item mutex at commit time, so a
// caller that loses a race gets ErrInsufficientStock instead of a lost update.
package ledger

import (
	"sync"

	"github.com/google/uuid"

	"github.com/live-commerce/claim-service/internal/domain"
)

type counters struct {
	stock    int
	reserved int
}

func (c *counters) available() int {
	avail := c.stock - c.reserved
	if avail < 0 {
		return 0
	}
	return avail
}

type itemState struct {
	mu       sync.Mutex
	name     string
	active   bool
	seq      uint64   // snapshot sequence, bumped under mu
	counters counters // item-level, unused when the item has variants
	variants map[uuid.UUID]*counters
}

// Ledger is safe for concurrent use. Adjustments against the same item are
// strictly serialized; different items proceed in parallel.
type Ledger struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*itemState
}

func New() *Ledger {
	return &Ledger{
		items: make(map[uuid.UUID]*itemState),
	}
}

// Register adds or replaces an item and its variants. Counters must already
// satisfy 0 <= reserved <= stock; registration does not re-derive them.
func (l *Ledger) Register(item domain.InventoryItem) error {
	if item.Stock < 0 || item.ReservedStock < 0 || item.ReservedStock > item.Stock {
		return domain.ErrInvalidAdjustment
	}

	state := &itemState{
		name:   item.Name,
		active: item.Active,
		counters: counters{
			stock:    item.Stock,
			reserved: item.ReservedStock,
		},
	}

	if len(item.Variants) > 0 {
		state.variants = make(map[uuid.UUID]*counters, len(item.Variants))
		// A variant item never carries independent item-level counters.
		state.counters = counters{}
		for _, v := range item.Variants {
			if v.Stock < 0 || v.ReservedStock < 0 || v.ReservedStock > v.Stock {
				return domain.ErrInvalidAdjustment
			}
			state.variants[v.ID] = &counters{stock: v.Stock, reserved: v.ReservedStock}
		}
	}

	l.mu.Lock()
	l.items[item.ID] = state
	l.mu.Unlock()
	return nil
}

func (l *Ledger) lookup(itemID uuid.UUID) (*itemState, error) {
	l.mu.RLock()
	state, ok := l.items[itemID]
	l.mu.RUnlock()
	if !ok {
		return nil, domain.NewNotFoundError("item", itemID.String())
	}
	return state, nil
}

// GetAvailable returns stock minus reservations, clamped at zero. Querying a
// variant item without a variant ID returns the sum across its variants.
func (l *Ledger) GetAvailable(itemID, variantID uuid.UUID) (int, error) {
	state, err := l.lookup(itemID)
	if err != nil {
		return 0, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if variantID == uuid.Nil {
		if len(state.variants) == 0 {
			return state.counters.available(), nil
		}
		total := 0
		for _, c := range state.variants {
			total += c.available()
		}
		return total, nil
	}

	c, ok := state.variants[variantID]
	if !ok {
		return 0, domain.NewNotFoundError("variant", variantID.String())
	}
	return c.available(), nil
}

// AdjustReservation atomically applies reserved += delta to the targeted
// counters. It fails with ErrInsufficientStock when a positive delta would
// exceed stock and ErrInvalidAdjustment when a negative delta would underflow.
// This is the only stock mutation primitive; reserve, release and re-reserve
// are all spelled as positive or negative deltas.
func (l *Ledger) AdjustReservation(itemID, variantID uuid.UUID, delta int) error {
	state, err := l.lookup(itemID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	target := &state.counters
	if len(state.variants) > 0 {
		if variantID == uuid.Nil {
			// Variant items have no independent item-level reservation total.
			return domain.ErrInvalidAdjustment
		}
		c, ok := state.variants[variantID]
		if !ok {
			return domain.NewNotFoundError("variant", variantID.String())
		}
		target = c
	} else if variantID != uuid.Nil {
		return domain.NewNotFoundError("variant", variantID.String())
	}

	next := target.reserved + delta
	if delta > 0 && next > target.stock {
		return domain.ErrInsufficientStock
	}
	if next < 0 {
		return domain.ErrInvalidAdjustment
	}

	target.reserved = next
	return nil
}

// IsActive reports whether the item is registered and open for claims.
func (l *Ledger) IsActive(itemID uuid.UUID) (bool, error) {
	state, err := l.lookup(itemID)
	if err != nil {
		return false, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.active, nil
}

// HasVariants reports whether the item decomposes into variants.
func (l *Ledger) HasVariants(itemID uuid.UUID) (bool, error) {
	state, err := l.lookup(itemID)
	if err != nil {
		return false, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return len(state.variants) > 0, nil
}

// HasVariant reports whether variantID belongs to itemID.
func (l *Ledger) HasVariant(itemID, variantID uuid.UUID) (bool, error) {
	state, err := l.lookup(itemID)
	if err != nil {
		return false, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	_, ok := state.variants[variantID]
	return ok, nil
}

// Snapshot reads the targeted counters for persistence. VariantID uuid.Nil
// addresses the item-level counters of a no-variant item. The sequence is
// assigned under the item mutex, so of two snapshots of the same counters the
// one with the higher sequence carries the newer values even when they are
// handed to the writer out of order.
func (l *Ledger) Snapshot(itemID, variantID uuid.UUID) (domain.StockSnapshot, error) {
	state, err := l.lookup(itemID)
	if err != nil {
		return domain.StockSnapshot{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	target := &state.counters
	if variantID != uuid.Nil {
		c, ok := state.variants[variantID]
		if !ok {
			return domain.StockSnapshot{}, domain.NewNotFoundError("variant", variantID.String())
		}
		target = c
	}

	state.seq++
	return domain.StockSnapshot{
		ItemID:        itemID,
		VariantID:     variantID,
		Stock:         target.stock,
		ReservedStock: target.reserved,
		Seq:           state.seq,
	}, nil
}

// Items reports every registered item with derived item-level totals for
// variant items. Ordering is unspecified.
func (l *Ledger) Items() []domain.InventoryItem {
	l.mu.RLock()
	ids := make([]uuid.UUID, 0, len(l.items))
	states := make([]*itemState, 0, len(l.items))
	for id, state := range l.items {
		ids = append(ids, id)
		states = append(states, state)
	}
	l.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(states))
	for i, state := range states {
		state.mu.Lock()
		item := domain.InventoryItem{
			ID:     ids[i],
			Name:   state.name,
			Active: state.active,
		}
		if len(state.variants) == 0 {
			item.Stock = state.counters.stock
			item.ReservedStock = state.counters.reserved
		} else {
			for vid, c := range state.variants {
				item.Stock += c.stock
				item.ReservedStock += c.reserved
				item.Variants = append(item.Variants, domain.Variant{
					ID:            vid,
					ItemID:        ids[i],
					Stock:         c.stock,
					ReservedStock: c.reserved,
				})
			}
		}
		state.mu.Unlock()
		items = append(items, item)
	}
	return items
}
