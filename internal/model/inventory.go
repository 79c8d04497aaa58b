package model

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
)

// DefaultInventorySlots is the slot capacity used when config does not override it.
const DefaultInventorySlots = 30

// ErrInventoryFull is wrapped by OverflowError.
var ErrInventoryFull = errors.New("inventory full")

// OverflowError is returned by Insert when the item neither merges into an
// open stack nor fits into a new slot. The rejected item is handed back.
type OverflowError struct {
	Item Item
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("inventory full: cannot store %s", e.Item.Name())
}

func (e *OverflowError) Unwrap() error {
	return ErrInventoryFull
}

// InventorySlot is one stack: an item and how many units of it are held.
// Count is always in [1, Item.StackLimit()].
type InventorySlot struct {
	Item  Item
	Count int
}

// Full reports whether the stack reached its item's stack limit.
func (s InventorySlot) Full() bool {
	return s.Count >= s.Item.StackLimit()
}

// Inventory is a bounded, ordered collection of item stacks.
//
// Slot order is insertion order and drives first-fit merging. Slots are
// never removed. Inventory is not safe for concurrent use; the owner
// serializes access.
type Inventory struct {
	slots    []InventorySlot
	maxSlots int
}

// NewInventory creates an empty inventory holding at most maxSlots stacks.
func NewInventory(maxSlots int) (*Inventory, error) {
	if maxSlots <= 0 {
		return nil, fmt.Errorf("max slots must be > 0, got %d", maxSlots)
	}
	return &Inventory{
		slots:    make([]InventorySlot, 0, maxSlots),
		maxSlots: maxSlots,
	}, nil
}

// Insert stores one unit of item.
//
// The first slot (in insertion order) holding an equal item below its stack
// limit absorbs it. Otherwise a new slot is opened if capacity allows.
// Otherwise *OverflowError carrying the item is returned and the inventory
// is left untouched.
func (inv *Inventory) Insert(item Item) error {
	for i := range inv.slots {
		slot := &inv.slots[i]
		if slot.Item == item && !slot.Full() {
			slot.Count++
			return nil
		}
	}

	if len(inv.slots) < inv.maxSlots {
		inv.slots = append(inv.slots, InventorySlot{Item: item, Count: 1})
		return nil
	}

	return &OverflowError{Item: item}
}

// IsFull reports whether every slot is occupied.
// Items matching an open stack can still be inserted into a full inventory.
func (inv *Inventory) IsFull() bool {
	return len(inv.slots) == inv.maxSlots
}

// Len returns the number of occupied slots.
func (inv *Inventory) Len() int {
	return len(inv.slots)
}

// MaxSlots returns the configured slot capacity.
func (inv *Inventory) MaxSlots() int {
	return inv.maxSlots
}

// Slots returns a copy of the slots in insertion order.
func (inv *Inventory) Slots() []InventorySlot {
	out := make([]InventorySlot, len(inv.slots))
	copy(out, inv.slots)
	return out
}

// Count returns the total units of item across all slots.
func (inv *Inventory) Count(item Item) int {
	total := 0
	for _, slot := range inv.slots {
		if slot.Item == item {
			total += slot.Count
		}
	}
	return total
}

// WriteTable prints the inventory as an aligned table, one row per slot.
func (inv *Inventory) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tCATEGORY\tRARITY\tINFLUENCE\tCOUNT")
	for i, slot := range inv.slots {
		influence := "-"
		if inf, ok := slot.Item.Influence(); ok {
			influence = inf.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d/%d\n",
			i+1,
			slot.Item.Name(),
			slot.Item.Category(),
			slot.Item.Rarity(),
			influence,
			slot.Count,
			slot.Item.StackLimit(),
		)
	}
	fmt.Fprintf(tw, "\t\t\t\t\t%d/%d slots\n", len(inv.slots), inv.maxSlots)
	return tw.Flush()
}
