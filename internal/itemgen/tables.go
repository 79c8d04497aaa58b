package itemgen

import "github.com/udisondev/rpgcore/internal/model"

// weighted is one row of a weight table.
type weighted[T any] struct {
	value  T
	weight int
}

// categoryClasses is the two-level category partition: a coarse class is
// drawn first, then a member inside it. Both levels sum to 1000.
var categoryClasses = []weighted[[]weighted[model.ItemCategory]]{
	{weight: 250, value: []weighted[model.ItemCategory]{
		{model.ItemCategoryConsumableFood, 500},
		{model.ItemCategoryConsumablePotion, 500},
	}},
	{weight: 250, value: []weighted[model.ItemCategory]{
		{model.ItemCategoryArmorHead, 250},
		{model.ItemCategoryArmorChest, 250},
		{model.ItemCategoryArmorLegs, 250},
		{model.ItemCategoryArmorFeet, 250},
	}},
	{weight: 250, value: []weighted[model.ItemCategory]{
		{model.ItemCategoryWeaponHammer, 333},
		{model.ItemCategoryWeaponSword, 333},
		{model.ItemCategoryWeaponWand, 334},
	}},
	{weight: 250, value: []weighted[model.ItemCategory]{
		{model.ItemCategoryUsable, 500},
		{model.ItemCategoryProp, 500},
	}},
}

var rarityWeights = []weighted[model.Rarity]{
	{model.RarityCommon, 750},
	{model.RarityUncommon, 167},
	{model.RarityRare, 55},
	{model.RarityEpic, 20},
	{model.RarityLegendary, 8},
}

// influenceRanges are inclusive magnitude bounds per rarity tier.
// Buckets do not overlap and grow with the tier.
var influenceRanges = [...]struct{ lo, hi int }{
	model.RarityCommon:    {-1, 9},
	model.RarityUncommon:  {10, 49},
	model.RarityRare:      {50, 99},
	model.RarityEpic:      {100, 249},
	model.RarityLegendary: {250, 499},
}

var stackTiers = []int{4, 16, 64}

var (
	weaponPrefixes = []string{"Shiny", "Firey", "Wonderous", "Giant"}
	weaponNouns    = []string{"Sword", "Boulder", "Wand", "Dagger", "Hammer", "Rifle"}
	weaponSuffixes = []string{
		"Nashioce", "Gobloygro", "Vuskia", "Lawhos", "Shiyle", "Steiwana", "Ashington",
		"Ustistan", "Plez Chium", "Staej Slua", "Ospaewana", "Wespeugua", "Cuchein",
		"Keflya", "Speyle", "Swainia", "Eswijan", "Uswein", "Scok Slya", "Proz Drana",
		"Decruecia", "Vospoydan", "Xesneau", "Japlax", "Scuecia", "Dreina", "Uswela",
		"Usten", "Smen Snana", "Glan Gra", "Puswaenia", "Jepraoles", "Pasla", "Ewhium",
		"Floulia", "Plioso", "Aplurg", "Escines", "Groyt Thington", "Fleiw Flen",
	}
)

// pick draws one value from table proportionally to its weight.
// table must be non-empty with positive weights.
func pick[T any](src Source, table []weighted[T]) T {
	total := 0
	for _, row := range table {
		total += row.weight
	}
	r := src.IntRange(0, total-1)
	for _, row := range table {
		if r < row.weight {
			return row.value
		}
		r -= row.weight
	}
	return table[len(table)-1].value
}

// uniform draws one element of list with equal probability.
func uniform[T any](src Source, list []T) T {
	return list[src.IntRange(0, len(list)-1)]
}

// drawCategory draws from the two-level partition restricted to categories
// accept allows. Filtered classes and members keep their relative weights.
// The caller guarantees at least one category passes.
func drawCategory(src Source, accept func(model.ItemCategory) bool) model.ItemCategory {
	classes := make([]weighted[[]weighted[model.ItemCategory]], 0, len(categoryClasses))
	for _, class := range categoryClasses {
		members := make([]weighted[model.ItemCategory], 0, len(class.value))
		for _, m := range class.value {
			if accept(m.value) {
				members = append(members, m)
			}
		}
		if len(members) > 0 {
			classes = append(classes, weighted[[]weighted[model.ItemCategory]]{value: members, weight: class.weight})
		}
	}
	return pick(src, pick(src, classes))
}
