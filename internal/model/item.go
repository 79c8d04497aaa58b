package model

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrInvalidItem is wrapped by every NewItem validation failure.
var ErrInvalidItem = errors.New("invalid item")

// Influence is a signed modifier an item applies to one attribute.
type Influence struct {
	Attribute Attribute
	Amount    int64
}

// String formats the influence as "+12 strength".
func (inf Influence) String() string {
	return fmt.Sprintf("%+d %s", inf.Amount, inf.Attribute)
}

// Item is an immutable piece of generated content.
//
// Item is comparable: two items belong to the same inventory stack exactly
// when they are equal with ==. All fields are unexported so an Item can only
// be produced by NewItem (or the item generator, which calls it) and never
// changes afterwards.
type Item struct {
	name         string
	category     ItemCategory
	influence    Influence
	hasInfluence bool
	stackLimit   int
	rarity       Rarity
}

// NewItem builds an item and checks its invariants.
//
// Parameters:
//   - name: display name
//   - category: item category
//   - influence: optional attribute influence (nil = none)
//   - stackLimit: max units per inventory slot (1 = not stackable)
//   - rarity: quality tier
//
// Returns an error wrapping ErrInvalidItem when:
//   - category or rarity is out of range
//   - stackLimit < 1, or stackLimit > 1 for a non-stackable category
//   - influence has a zero amount or an attribute the category cannot influence
func NewItem(name string, category ItemCategory, influence *Influence, stackLimit int, rarity Rarity) (Item, error) {
	if !category.Valid() {
		return Item{}, fmt.Errorf("%w: unknown category %d", ErrInvalidItem, int32(category))
	}
	if !rarity.Valid() {
		return Item{}, fmt.Errorf("%w: unknown rarity %d", ErrInvalidItem, int32(rarity))
	}
	if stackLimit < 1 {
		return Item{}, fmt.Errorf("%w: stack limit must be >= 1, got %d", ErrInvalidItem, stackLimit)
	}
	if stackLimit > 1 && !category.IsStackable() {
		return Item{}, fmt.Errorf("%w: %s cannot stack (limit %d)", ErrInvalidItem, category, stackLimit)
	}

	it := Item{
		name:       name,
		category:   category,
		stackLimit: stackLimit,
		rarity:     rarity,
	}
	if influence != nil {
		if influence.Amount == 0 {
			return Item{}, fmt.Errorf("%w: influence amount must be non-zero", ErrInvalidItem)
		}
		if !category.AllowsAttribute(influence.Attribute) {
			return Item{}, fmt.Errorf("%w: %s cannot influence %s", ErrInvalidItem, category, influence.Attribute)
		}
		it.influence = *influence
		it.hasInfluence = true
	}
	return it, nil
}

// MustNewItem is NewItem for literals known to be valid. Panics on error.
func MustNewItem(name string, category ItemCategory, influence *Influence, stackLimit int, rarity Rarity) Item {
	it, err := NewItem(name, category, influence, stackLimit, rarity)
	if err != nil {
		panic(err)
	}
	return it
}

// Name returns the display name.
func (i Item) Name() string { return i.name }

// Category returns the item category.
func (i Item) Category() ItemCategory { return i.category }

// Rarity returns the quality tier.
func (i Item) Rarity() Rarity { return i.rarity }

// StackLimit returns the max units one inventory slot may hold.
func (i Item) StackLimit() int { return i.stackLimit }

// Influence returns the attribute influence, if the item has one.
func (i Item) Influence() (Influence, bool) {
	return i.influence, i.hasInfluence
}

// CanBeEquipped returns true for armor and weapons.
func (i Item) CanBeEquipped() bool {
	return i.category.IsEquippable()
}

// CanBeStacked returns true if more than one unit fits in a slot.
func (i Item) CanBeStacked() bool {
	return i.stackLimit > 1
}

// String returns "Name (rarity category)".
func (i Item) String() string {
	return fmt.Sprintf("%s (%s %s)", i.name, i.rarity, i.category)
}

// Fingerprint returns a stable hex digest of every field.
// Equal items have equal fingerprints, so storage can dedupe on it.
func (i Item) Fingerprint() string {
	buf := make([]byte, 0, 64+len(i.name))
	buf = binary.AppendUvarint(buf, uint64(len(i.name)))
	buf = append(buf, i.name...)
	buf = binary.AppendVarint(buf, int64(i.category))
	buf = binary.AppendVarint(buf, int64(i.rarity))
	buf = binary.AppendVarint(buf, int64(i.stackLimit))
	if i.hasInfluence {
		buf = append(buf, 1)
		buf = binary.AppendVarint(buf, int64(i.influence.Attribute))
		buf = binary.AppendVarint(buf, i.influence.Amount)
	} else {
		buf = append(buf, 0)
	}
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

type influenceJSON struct {
	Attribute string `json:"attribute"`
	Amount    int64  `json:"amount"`
}

type itemJSON struct {
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Rarity     string         `json:"rarity"`
	StackLimit int            `json:"stack_limit"`
	Influence  *influenceJSON `json:"influence,omitempty"`
}

// MarshalJSON encodes the item with enum names instead of numbers.
func (i Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		Name:       i.name,
		Category:   i.category.String(),
		Rarity:     i.rarity.String(),
		StackLimit: i.stackLimit,
	}
	if i.hasInfluence {
		out.Influence = &influenceJSON{
			Attribute: i.influence.Attribute.String(),
			Amount:    i.influence.Amount,
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates an item through NewItem.
func (i *Item) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	category, err := ParseItemCategory(in.Category)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	rarity, err := ParseRarity(in.Rarity)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	var influence *Influence
	if in.Influence != nil {
		attr, err := ParseAttribute(in.Influence.Attribute)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidItem, err)
		}
		influence = &Influence{Attribute: attr, Amount: in.Influence.Amount}
	}
	it, err := NewItem(in.Name, category, influence, in.StackLimit, rarity)
	if err != nil {
		return err
	}
	*i = it
	return nil
}
