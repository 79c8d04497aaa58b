package model

import (
	"errors"
	"fmt"
)

// ErrSlotMismatch is returned when an item is equipped into a slot that does
// not accept its category. Callers are expected to check EquipmentSlot.Accepts
// first; hitting this error is a programming mistake.
var ErrSlotMismatch = errors.New("item category does not fit equipment slot")

// EquipmentSlot is a paperdoll position.
type EquipmentSlot int32

const (
	SlotHead EquipmentSlot = iota
	SlotChest
	SlotLegs
	SlotFeet
	SlotLeftHand
	SlotRightHand
	EquipmentSlotCount
)

var slotNames = [EquipmentSlotCount]string{"head", "chest", "legs", "feet", "left_hand", "right_hand"}

// String returns the snake_case slot name.
func (s EquipmentSlot) String() string {
	if s < 0 || s >= EquipmentSlotCount {
		return fmt.Sprintf("UNKNOWN(%d)", int32(s))
	}
	return slotNames[s]
}

// Accepts reports whether an item of category c may occupy the slot.
// Armor slots take the matching piece; both hands take any weapon.
func (s EquipmentSlot) Accepts(c ItemCategory) bool {
	switch s {
	case SlotHead:
		return c == ItemCategoryArmorHead
	case SlotChest:
		return c == ItemCategoryArmorChest
	case SlotLegs:
		return c == ItemCategoryArmorLegs
	case SlotFeet:
		return c == ItemCategoryArmorFeet
	case SlotLeftHand, SlotRightHand:
		return c.IsWeapon()
	default:
		return false
	}
}

// Equipment holds at most one item per paperdoll slot.
type Equipment struct {
	slots    [EquipmentSlotCount]Item
	occupied [EquipmentSlotCount]bool
}

// NewEquipment returns an empty paperdoll.
func NewEquipment() *Equipment {
	return &Equipment{}
}

// Equip puts item into slot and returns whatever was there before.
//
// Returns:
//   - prev, hadPrev: the replaced item, if the slot was occupied
//   - error: wraps ErrSlotMismatch if the slot does not accept the item's category
func (e *Equipment) Equip(slot EquipmentSlot, item Item) (prev Item, hadPrev bool, err error) {
	if slot < 0 || slot >= EquipmentSlotCount {
		return Item{}, false, fmt.Errorf("invalid slot: %d (must be 0..%d)", slot, EquipmentSlotCount-1)
	}
	if !slot.Accepts(item.Category()) {
		return Item{}, false, fmt.Errorf("equipping %s into %s: %w", item.Category(), slot, ErrSlotMismatch)
	}

	prev, hadPrev = e.slots[slot], e.occupied[slot]
	e.slots[slot] = item
	e.occupied[slot] = true
	return prev, hadPrev, nil
}

// Unequip empties slot and returns the removed item, if any.
func (e *Equipment) Unequip(slot EquipmentSlot) (Item, bool) {
	if slot < 0 || slot >= EquipmentSlotCount || !e.occupied[slot] {
		return Item{}, false
	}
	item := e.slots[slot]
	e.slots[slot] = Item{}
	e.occupied[slot] = false
	return item, true
}

// Get returns the item in slot, if any.
func (e *Equipment) Get(slot EquipmentSlot) (Item, bool) {
	if slot < 0 || slot >= EquipmentSlotCount {
		return Item{}, false
	}
	return e.slots[slot], e.occupied[slot]
}

// Influence sums the influences on attr across every equipped item.
func (e *Equipment) Influence(attr Attribute) int64 {
	var total int64
	for i := range EquipmentSlotCount {
		if !e.occupied[i] {
			continue
		}
		if inf, ok := e.slots[i].Influence(); ok && inf.Attribute == attr {
			total += inf.Amount
		}
	}
	return total
}
