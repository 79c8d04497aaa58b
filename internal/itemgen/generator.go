// Package itemgen produces random but internally consistent items.
//
// A Generator is a builder: any field may be pinned, the rest are drawn from
// fixed weight tables when Generate is called. Draws happen in a fixed order
// (category, rarity, influence, stack size, name), so a Generator built with
// the same pins over a Source with the same seed yields the same item.
//
// Every combination of unpinned fields is valid. Pins can contradict each
// other, for example a sword pinned to stack size 16. Validate reports such
// combinations as ErrConflictingPins, and Generate panics on them, so callers
// that pin fields from untrusted input should call Validate first.
package itemgen

import (
	"errors"
	"fmt"

	"github.com/udisondev/rpgcore/internal/model"
)

// ErrConflictingPins is wrapped by Validate when the pinned fields cannot
// describe a valid item.
var ErrConflictingPins = errors.New("conflicting item pins")

// Generator builds items. Unpinned fields are drawn from src on Generate.
//
// A Generator is not safe for concurrent use because its Source is not.
type Generator struct {
	src   Source
	names NameSource

	name            *string
	category        *model.ItemCategory
	influencePinned bool
	influence       *model.Influence
	stackSize       *int
	rarity          *model.Rarity
}

// New returns a generator with nothing pinned.
// If names is nil, NewPlainNames(src) is used.
func New(src Source, names NameSource) *Generator {
	if names == nil {
		names = NewPlainNames(src)
	}
	return &Generator{src: src, names: names}
}

// Name pins the display name.
func (g *Generator) Name(name string) *Generator {
	g.name = &name
	return g
}

// Category pins the item category.
func (g *Generator) Category(c model.ItemCategory) *Generator {
	g.category = &c
	return g
}

// Influence pins the influence. A nil influence pins "no influence".
func (g *Generator) Influence(inf *model.Influence) *Generator {
	g.influencePinned = true
	if inf == nil {
		g.influence = nil
		return g
	}
	cp := *inf
	g.influence = &cp
	return g
}

// StackSize pins the stack limit.
func (g *Generator) StackSize(n int) *Generator {
	g.stackSize = &n
	return g
}

// Rarity pins the rarity tier.
func (g *Generator) Rarity(r model.Rarity) *Generator {
	g.rarity = &r
	return g
}

// Validate reports pin combinations no item can satisfy. Generate panics on
// exactly these combinations.
func (g *Generator) Validate() error {
	if g.category != nil && !g.category.Valid() {
		return fmt.Errorf("%w: unknown category %d", ErrConflictingPins, int32(*g.category))
	}
	if g.rarity != nil && !g.rarity.Valid() {
		return fmt.Errorf("%w: unknown rarity %d", ErrConflictingPins, int32(*g.rarity))
	}
	if g.stackSize != nil {
		if *g.stackSize < 1 {
			return fmt.Errorf("%w: stack size must be >= 1, got %d", ErrConflictingPins, *g.stackSize)
		}
		if *g.stackSize > 1 && g.category != nil && !g.category.IsStackable() {
			return fmt.Errorf("%w: %s cannot stack to %d", ErrConflictingPins, *g.category, *g.stackSize)
		}
	}
	if g.influence != nil {
		if !g.influence.Attribute.Valid() {
			return fmt.Errorf("%w: unknown attribute %d", ErrConflictingPins, int32(g.influence.Attribute))
		}
		if g.influence.Amount == 0 {
			return fmt.Errorf("%w: influence amount must be non-zero", ErrConflictingPins)
		}
		if g.category != nil && !g.category.AllowsAttribute(g.influence.Attribute) {
			return fmt.Errorf("%w: %s cannot influence %s", ErrConflictingPins, *g.category, g.influence.Attribute)
		}
	}
	return nil
}

// Generate produces an item. Pinned fields are copied as-is; the rest are
// drawn. Generate panics if Validate fails: conflicting pins are a caller bug.
func (g *Generator) Generate() model.Item {
	if err := g.Validate(); err != nil {
		panic(fmt.Sprintf("itemgen: %v", err))
	}

	category := g.resolveCategory()
	rarity := g.resolveRarity()
	influence := g.resolveInfluence(category, rarity)
	stackSize := g.resolveStackSize(category)
	name := g.resolveName(category)

	item, err := model.NewItem(name, category, influence, stackSize, rarity)
	if err != nil {
		// Validate and the constrained draws rule this out.
		panic(fmt.Sprintf("itemgen: generated invalid item: %v", err))
	}
	return item
}

func (g *Generator) resolveCategory() model.ItemCategory {
	if g.category != nil {
		return *g.category
	}
	return drawCategory(g.src, func(c model.ItemCategory) bool {
		if g.stackSize != nil && *g.stackSize > 1 && !c.IsStackable() {
			return false
		}
		if g.influence != nil && !c.AllowsAttribute(g.influence.Attribute) {
			return false
		}
		return true
	})
}

func (g *Generator) resolveRarity() model.Rarity {
	if g.rarity != nil {
		return *g.rarity
	}
	return pick(g.src, rarityWeights)
}

func (g *Generator) resolveInfluence(category model.ItemCategory, rarity model.Rarity) *model.Influence {
	if g.influencePinned {
		return g.influence
	}
	eligible := category.Attributes()
	if len(eligible) == 0 {
		return nil
	}
	if g.src.IntRange(0, 1) == 0 {
		return nil
	}
	attr := uniform(g.src, eligible)
	bounds := influenceRanges[rarity]
	amount := g.src.IntRange(bounds.lo, bounds.hi)
	if amount == 0 {
		amount = 1
	}
	return &model.Influence{Attribute: attr, Amount: int64(amount)}
}

func (g *Generator) resolveStackSize(category model.ItemCategory) int {
	if g.stackSize != nil {
		return *g.stackSize
	}
	if !category.IsStackable() {
		return 1
	}
	return uniform(g.src, stackTiers)
}

func (g *Generator) resolveName(category model.ItemCategory) string {
	if g.name != nil {
		return *g.name
	}
	return itemName(g.src, g.names, category)
}
