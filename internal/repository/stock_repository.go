package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/live-commerce/claim-service/internal/domain"
)

// StockRepository loads inventory into the ledger at boot and persists
// counter snapshots in the background. The in-memory ledger stays
// authoritative; writes here are ordered but asynchronous, so a slow
// database never sits inside the admission critical section.
type StockRepository struct {
	db        *sql.DB
	snapshots chan domain.StockSnapshot
	applied   map[snapKey]uint64 // last sequence written per counters, writer goroutine only
}

type snapKey struct {
	itemID    uuid.UUID
	variantID uuid.UUID
}

func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{
		db:        db,
		snapshots: make(chan domain.StockSnapshot, 256),
		applied:   make(map[snapKey]uint64),
	}
}

// LoadItems reads every item with its variants for ledger registration.
func (r *StockRepository) LoadItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, stock, reserved_stock, active
		FROM inventory_items
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*domain.InventoryItem)
	var order []uuid.UUID
	for rows.Next() {
		item := domain.InventoryItem{}
		if err := rows.Scan(&item.ID, &item.Name, &item.Stock, &item.ReservedStock, &item.Active); err != nil {
			return nil, err
		}
		byID[item.ID] = &item
		order = append(order, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variantRows, err := r.db.QueryContext(ctx, `
		SELECT id, item_id, label, stock, reserved_stock
		FROM inventory_variants
	`)
	if err != nil {
		return nil, err
	}
	defer variantRows.Close()

	for variantRows.Next() {
		variant := domain.Variant{}
		if err := variantRows.Scan(&variant.ID, &variant.ItemID, &variant.Label, &variant.Stock, &variant.ReservedStock); err != nil {
			return nil, err
		}
		if item, ok := byID[variant.ItemID]; ok {
			item.Variants = append(item.Variants, variant)
		}
	}
	if err := variantRows.Err(); err != nil {
		return nil, err
	}

	items := make([]domain.InventoryItem, 0, len(order))
	for _, id := range order {
		items = append(items, *byID[id])
	}
	return items, nil
}

// Enqueue hands a snapshot to the background writer without blocking the
// caller. A full queue drops the snapshot; a later snapshot of the same
// counters supersedes it anyway.
func (r *StockRepository) Enqueue(snapshot domain.StockSnapshot) {
	select {
	case r.snapshots <- snapshot:
	default:
		log.Warn().Str("item_id", snapshot.ItemID.String()).
			Msg("stock snapshot queue full, dropping")
	}
}

// Run drains the snapshot queue until ctx is cancelled.
func (r *StockRepository) Run(ctx context.Context) {
	for {
		select {
		case snapshot := <-r.snapshots:
			if r.stale(snapshot) {
				continue
			}
			if err := r.flush(ctx, snapshot); err != nil {
				log.Error().Err(err).Str("item_id", snapshot.ItemID.String()).
					Msg("stock snapshot flush failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// stale reports whether a newer snapshot of the same counters was already
// written, and records the sequence otherwise. Snapshots can be enqueued out
// of order; the ledger's per-item sequence says which values are current.
func (r *StockRepository) stale(snapshot domain.StockSnapshot) bool {
	key := snapKey{itemID: snapshot.ItemID, variantID: snapshot.VariantID}
	if last, ok := r.applied[key]; ok && snapshot.Seq <= last {
		return true
	}
	r.applied[key] = snapshot.Seq
	return false
}

func (r *StockRepository) flush(ctx context.Context, snapshot domain.StockSnapshot) error {
	if snapshot.VariantID != uuid.Nil {
		_, err := r.db.ExecContext(ctx, `
			UPDATE inventory_variants
			SET stock = $2, reserved_stock = $3
			WHERE id = $1
		`, snapshot.VariantID, snapshot.Stock, snapshot.ReservedStock)
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET stock = $2, reserved_stock = $3
		WHERE id = $1
	`, snapshot.ItemID, snapshot.Stock, snapshot.ReservedStock)
	return err
}
