package model

import "fmt"

// Character is the attribute sheet of a playable or non-playable actor.
//
// The simulation core only reads two things from it: the paperdoll shape
// (Equipment) and the optional Inventory. Base attributes and health are
// plain storage.
type Character struct {
	name       string
	health     int
	attributes map[Attribute]int64
	equipment  *Equipment
	inventory  *Inventory
}

// NewCharacter creates a character with the given health and no attributes,
// an empty paperdoll and no inventory.
func NewCharacter(name string, health int) (*Character, error) {
	if name == "" {
		return nil, fmt.Errorf("character name cannot be empty")
	}
	if health < 0 {
		return nil, fmt.Errorf("health cannot be negative, got %d", health)
	}
	return &Character{
		name:       name,
		health:     health,
		attributes: make(map[Attribute]int64, attributeCount),
		equipment:  NewEquipment(),
	}, nil
}

// Name returns the character name.
func (c *Character) Name() string {
	return c.name
}

// Health returns current health.
func (c *Character) Health() int {
	return c.health
}

// SetHealth sets health, clamping negatives to 0.
func (c *Character) SetHealth(hp int) {
	c.health = max(hp, 0)
}

// BaseAttribute returns the attribute value without equipment.
func (c *Character) BaseAttribute(a Attribute) int64 {
	return c.attributes[a]
}

// SetBaseAttribute sets the attribute value without equipment.
func (c *Character) SetBaseAttribute(a Attribute, v int64) {
	c.attributes[a] = v
}

// Attribute returns the base value plus every equipped item's influence on a.
func (c *Character) Attribute(a Attribute) int64 {
	return c.attributes[a] + c.equipment.Influence(a)
}

// Equipment returns the character's paperdoll.
func (c *Character) Equipment() *Equipment {
	return c.equipment
}

// Inventory returns the inventory (nil if the character carries none).
func (c *Character) Inventory() *Inventory {
	return c.inventory
}

// SetInventory attaches an inventory.
func (c *Character) SetInventory(inv *Inventory) {
	c.inventory = inv
}
