package model

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventory(t *testing.T, maxSlots int) *Inventory {
	t.Helper()
	inv, err := NewInventory(maxSlots)
	require.NoError(t, err, "NewInventory(%d)", maxSlots)
	return inv
}

func distinctSword(i int) Item {
	return MustNewItem(fmt.Sprintf("Sword #%d", i), ItemCategoryWeaponSword, nil, 1, RarityCommon)
}

func TestNewInventory_InvalidCapacity(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewInventory(n)
		assert.Error(t, err, "NewInventory(%d)", n)
	}
}

func TestInventory_DistinctItemsFillSlots(t *testing.T) {
	const maxSlots = 5
	inv := newTestInventory(t, maxSlots)

	for i := range maxSlots {
		assert.False(t, inv.IsFull(), "full before insert %d", i)
		require.NoError(t, inv.Insert(distinctSword(i)))
		assert.Equal(t, i+1, inv.Len())
	}
	assert.True(t, inv.IsFull())

	overflow := distinctSword(maxSlots)
	err := inv.Insert(overflow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInventoryFull))

	var oe *OverflowError
	require.ErrorAs(t, err, &oe)
	assert.True(t, oe.Item == overflow, "rejected item handed back")
	assert.Equal(t, maxSlots, inv.Len(), "overflow leaves inventory untouched")
}

func TestInventory_StackFillsThenOpensNewSlot(t *testing.T) {
	for _, limit := range []int{2, 4, 16, 64} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			inv := newTestInventory(t, 3)
			potion := MustNewItem("Potion", ItemCategoryConsumablePotion, nil, limit, RarityCommon)

			for range limit {
				require.NoError(t, inv.Insert(potion))
			}
			require.Equal(t, 1, inv.Len())
			assert.Equal(t, limit, inv.Slots()[0].Count)
			assert.True(t, inv.Slots()[0].Full())

			require.NoError(t, inv.Insert(potion))
			require.Equal(t, 2, inv.Len())
			assert.Equal(t, limit, inv.Slots()[0].Count)
			assert.Equal(t, 1, inv.Slots()[1].Count)
			assert.Equal(t, limit+1, inv.Count(potion))
		})
	}
}

func TestInventory_NonStackableTakesTwoSlots(t *testing.T) {
	inv := newTestInventory(t, 10)
	helm := MustNewItem("Helm", ItemCategoryArmorHead, nil, 1, RarityEpic)

	require.NoError(t, inv.Insert(helm))
	require.NoError(t, inv.Insert(helm))

	slots := inv.Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, 1, slots[0].Count)
	assert.Equal(t, 1, slots[1].Count)
}

func TestInventory_MergeSucceedsWhenFull(t *testing.T) {
	inv := newTestInventory(t, 2)
	food := MustNewItem("Bread", ItemCategoryConsumableFood, nil, 4, RarityCommon)

	require.NoError(t, inv.Insert(food))
	require.NoError(t, inv.Insert(distinctSword(0)))
	require.True(t, inv.IsFull())

	// Merges into the open bread stack without a new slot.
	for range 3 {
		require.NoError(t, inv.Insert(food))
	}
	assert.Equal(t, 4, inv.Slots()[0].Count)

	// Bread stack is now closed; a fifth loaf needs a slot that does not exist.
	err := inv.Insert(food)
	assert.ErrorIs(t, err, ErrInventoryFull)
	assert.Equal(t, 4, inv.Count(food))
}

func TestInventory_FirstFitInInsertionOrder(t *testing.T) {
	inv := newTestInventory(t, 5)
	apple := MustNewItem("Apple", ItemCategoryConsumableFood, nil, 2, RarityCommon)
	pear := MustNewItem("Pear", ItemCategoryConsumableFood, nil, 2, RarityCommon)

	for _, it := range []Item{apple, apple, pear, apple, pear, apple} {
		require.NoError(t, inv.Insert(it))
	}

	slots := inv.Slots()
	require.Len(t, slots, 3)
	assert.Equal(t, InventorySlot{Item: apple, Count: 2}, slots[0])
	assert.Equal(t, InventorySlot{Item: pear, Count: 2}, slots[1])
	assert.Equal(t, InventorySlot{Item: apple, Count: 2}, slots[2])
}

func TestInventory_SimilarItemsDoNotMerge(t *testing.T) {
	inv := newTestInventory(t, 5)
	a := MustNewItem("Elixir", ItemCategoryConsumablePotion, nil, 16, RarityCommon)
	b := MustNewItem("Elixir", ItemCategoryConsumablePotion, nil, 16, RarityRare)

	require.NoError(t, inv.Insert(a))
	require.NoError(t, inv.Insert(b))
	assert.Equal(t, 2, inv.Len())
}

func TestInventory_SlotsIsCopy(t *testing.T) {
	inv := newTestInventory(t, 2)
	require.NoError(t, inv.Insert(distinctSword(1)))

	slots := inv.Slots()
	slots[0].Count = 99

	assert.Equal(t, 1, inv.Slots()[0].Count)
}

func TestInventory_WriteTable(t *testing.T) {
	inv := newTestInventory(t, 4)
	potion := MustNewItem("Healing Draught", ItemCategoryConsumablePotion,
		&Influence{Attribute: AttributeConstitution, Amount: 7}, 4, RarityUncommon)
	require.NoError(t, inv.Insert(potion))
	require.NoError(t, inv.Insert(potion))

	var buf bytes.Buffer
	require.NoError(t, inv.WriteTable(&buf))

	out := buf.String()
	assert.Contains(t, out, "Healing Draught")
	assert.Contains(t, out, "+7 constitution")
	assert.Contains(t, out, "2/4")
	assert.Contains(t, out, "1/4 slots")
}
