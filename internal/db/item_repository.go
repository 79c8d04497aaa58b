package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rpgcore/internal/model"
)

// ErrItemNotFound is returned by Get for an unknown item id.
var ErrItemNotFound = errors.New("item not found")

// ItemRepository is the ledger of generated items.
// Structurally equal items share one row, keyed by Item.Fingerprint.
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

// Save stores item unless an equal one is already recorded, and returns
// the row id either way.
func (r *ItemRepository) Save(ctx context.Context, item model.Item) (int64, error) {
	return saveItem(ctx, r.db, item)
}

// Get loads the item with the given id.
func (r *ItemRepository) Get(ctx context.Context, id int64) (model.Item, error) {
	query := `
		SELECT name, category, rarity, stack_limit, influence_attribute, influence_amount
		FROM items
		WHERE item_id = $1
	`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Item{}, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("loading item %d: %w", id, err)
	}
	return item, nil
}

// CountByRarity returns how many distinct items of each rarity are recorded.
func (r *ItemRepository) CountByRarity(ctx context.Context) (map[model.Rarity]int, error) {
	rows, err := r.db.Query(ctx, `SELECT rarity, COUNT(*) FROM items GROUP BY rarity`)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	defer rows.Close()

	out := make(map[model.Rarity]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning rarity count: %w", err)
		}
		rarity, err := model.ParseRarity(name)
		if err != nil {
			return nil, err
		}
		out[rarity] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rarity counts: %w", err)
	}
	return out, nil
}

func saveItem(ctx context.Context, q querier, item model.Item) (int64, error) {
	query := `
		INSERT INTO items (fingerprint, name, category, rarity, stack_limit, influence_attribute, influence_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (fingerprint) DO UPDATE SET fingerprint = EXCLUDED.fingerprint
		RETURNING item_id
	`

	var attr *string
	var amount *int64
	if inf, ok := item.Influence(); ok {
		name := inf.Attribute.String()
		attr = &name
		amount = &inf.Amount
	}

	var id int64
	err := q.QueryRow(ctx, query,
		item.Fingerprint(), item.Name(), item.Category().String(), item.Rarity().String(),
		item.StackLimit(), attr, amount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving item %q: %w", item.Name(), err)
	}
	return id, nil
}

// scanItem reads name, category, rarity, stack_limit, influence_attribute,
// influence_amount (in that order) and rebuilds the item through NewItem.
func scanItem(row pgx.Row, extra ...any) (model.Item, error) {
	var (
		name, categoryName, rarityName string
		stackLimit                     int
		attrName                       *string
		amount                         *int64
	)
	dest := append([]any{&name, &categoryName, &rarityName, &stackLimit, &attrName, &amount}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Item{}, err
	}

	category, err := model.ParseItemCategory(categoryName)
	if err != nil {
		return model.Item{}, err
	}
	rarity, err := model.ParseRarity(rarityName)
	if err != nil {
		return model.Item{}, err
	}
	var influence *model.Influence
	if attrName != nil && amount != nil {
		attr, err := model.ParseAttribute(*attrName)
		if err != nil {
			return model.Item{}, err
		}
		influence = &model.Influence{Attribute: attr, Amount: *amount}
	}
	return model.NewItem(name, category, influence, stackLimit, rarity)
}
