package model

import "fmt"

// ItemCategory defines what kind of item something is.
type ItemCategory int32

const (
	ItemCategoryArmorHead ItemCategory = iota
	ItemCategoryArmorChest
	ItemCategoryArmorLegs
	ItemCategoryArmorFeet
	ItemCategoryConsumablePotion
	ItemCategoryConsumableFood
	ItemCategoryWeaponSword
	ItemCategoryWeaponWand
	ItemCategoryWeaponHammer
	ItemCategoryUsable
	ItemCategoryProp
	itemCategoryCount
)

var categoryNames = [itemCategoryCount]string{
	"armor_head",
	"armor_chest",
	"armor_legs",
	"armor_feet",
	"consumable_potion",
	"consumable_food",
	"weapon_sword",
	"weapon_wand",
	"weapon_hammer",
	"usable",
	"prop",
}

// Eligible influence attributes per category group.
var (
	consumableAttributes = AllAttributes()
	weaponAttributes     = []Attribute{AttributeDexterity, AttributeStrength}
	armorAttributes      = []Attribute{
		AttributeCharisma,
		AttributeConstitution,
		AttributeDefense,
		AttributeDexterity,
		AttributeLuck,
		AttributePerception,
	}
)

// AllItemCategories returns every category in declaration order.
func AllItemCategories() []ItemCategory {
	out := make([]ItemCategory, 0, itemCategoryCount)
	for c := range itemCategoryCount {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is one of the declared categories.
func (c ItemCategory) Valid() bool {
	return c >= 0 && c < itemCategoryCount
}

// String returns the snake_case category name.
func (c ItemCategory) String() string {
	if !c.Valid() {
		return fmt.Sprintf("UNKNOWN(%d)", int32(c))
	}
	return categoryNames[c]
}

// ParseItemCategory parses the name produced by ItemCategory.String.
func ParseItemCategory(s string) (ItemCategory, error) {
	for i, name := range categoryNames {
		if name == s {
			return ItemCategory(i), nil
		}
	}
	return 0, fmt.Errorf("unknown item category %q", s)
}

// IsArmor returns true for the four armor pieces.
func (c ItemCategory) IsArmor() bool {
	return c >= ItemCategoryArmorHead && c <= ItemCategoryArmorFeet
}

// IsWeapon returns true for swords, wands and hammers.
func (c ItemCategory) IsWeapon() bool {
	return c >= ItemCategoryWeaponSword && c <= ItemCategoryWeaponHammer
}

// IsConsumable returns true for potions and food.
func (c ItemCategory) IsConsumable() bool {
	return c == ItemCategoryConsumablePotion || c == ItemCategoryConsumableFood
}

// IsStackable reports whether items of this category may carry a stack limit above 1.
// Only consumables stack.
func (c ItemCategory) IsStackable() bool {
	return c.IsConsumable()
}

// IsEquippable returns true for armor and weapons.
func (c ItemCategory) IsEquippable() bool {
	return c.IsArmor() || c.IsWeapon()
}

// Attributes returns the attributes an item of this category may influence.
// Usable items and props influence nothing. The returned slice is a copy.
func (c ItemCategory) Attributes() []Attribute {
	var set []Attribute
	switch {
	case c.IsConsumable():
		set = consumableAttributes
	case c.IsWeapon():
		set = weaponAttributes
	case c.IsArmor():
		set = armorAttributes
	default:
		return nil
	}
	out := make([]Attribute, len(set))
	copy(out, set)
	return out
}

// AllowsAttribute reports whether a belongs to the category's eligible set.
func (c ItemCategory) AllowsAttribute(a Attribute) bool {
	for _, eligible := range c.Attributes() {
		if eligible == a {
			return true
		}
	}
	return false
}

// Rarity is an ordered five-tier quality grade: Common < Uncommon < Rare < Epic < Legendary.
type Rarity int32

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
	rarityCount
)

var rarityNames = [rarityCount]string{"common", "uncommon", "rare", "epic", "legendary"}

// AllRarities returns the tiers from Common to Legendary.
func AllRarities() []Rarity {
	return []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}
}

// Valid reports whether r is one of the five tiers.
func (r Rarity) Valid() bool {
	return r >= 0 && r < rarityCount
}

// String returns the lower-case tier name.
func (r Rarity) String() string {
	if !r.Valid() {
		return fmt.Sprintf("UNKNOWN(%d)", int32(r))
	}
	return rarityNames[r]
}

// ParseRarity parses the name produced by Rarity.String.
func ParseRarity(s string) (Rarity, error) {
	for i, name := range rarityNames {
		if name == s {
			return Rarity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}
