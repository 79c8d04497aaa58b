package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rpgcore/internal/model"
)

// InventoryRepository stores inventory snapshots per owner.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Save replaces owner's snapshot with the current slots of inv, in one
// transaction. Items are recorded in the ledger as a side effect.
func (r *InventoryRepository) Save(ctx context.Context, owner string, inv *model.Inventory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for %q: %w", owner, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
			slog.Error("rollback failed", "owner", owner, "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_slots WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("clearing inventory of %q: %w", owner, err)
	}

	slots := inv.Slots()
	for i, s := range slots {
		itemID, err := saveItem(ctx, tx, s.Item)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO inventory_slots (owner, slot_index, item_id, count) VALUES ($1, $2, $3, $4)`,
			owner, i, itemID, s.Count,
		)
		if err != nil {
			return fmt.Errorf("saving slot %d of %q: %w", i, owner, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction for %q: %w", owner, err)
	}

	slog.Info("inventory saved", "owner", owner, "slots", len(slots))
	return nil
}

// Load rebuilds owner's inventory with maxSlots slots by replaying the stored
// slots through Insert. An owner without a snapshot gets an empty inventory.
//
// Replaying in slot order restores the layout because first-fit insertion
// only opens a new slot for an item once its earlier slots are full.
func (r *InventoryRepository) Load(ctx context.Context, owner string, maxSlots int) (*model.Inventory, error) {
	inv, err := model.NewInventory(maxSlots)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT i.name, i.category, i.rarity, i.stack_limit, i.influence_attribute, i.influence_amount, s.count
		FROM inventory_slots s
		JOIN items i ON i.item_id = s.item_id
		WHERE s.owner = $1
		ORDER BY s.slot_index
	`
	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("querying inventory of %q: %w", owner, err)
	}
	defer rows.Close()

	for rows.Next() {
		var count int
		item, err := scanItem(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scanning slot of %q: %w", owner, err)
		}
		for range count {
			if err := inv.Insert(item); err != nil {
				return nil, fmt.Errorf("restoring inventory of %q: %w", owner, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots of %q: %w", owner, err)
	}

	return inv, nil
}

// Delete removes owner's snapshot.
func (r *InventoryRepository) Delete(ctx context.Context, owner string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM inventory_slots WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("deleting inventory of %q: %w", owner, err)
	}
	return nil
}
