package main

import (
	_ "embed"
	"fmt"

	"github.com/udisondev/rpgcore/internal/entity"
	"github.com/udisondev/rpgcore/internal/itemgen"
	"github.com/udisondev/rpgcore/internal/model"
	"github.com/udisondev/rpgcore/internal/script"
	"github.com/udisondev/rpgcore/internal/sim"
)

//go:embed guard.lua
var guardScript string

const (
	merchantName  = "merchant"
	chestName     = "chest"
	guardName     = "guard"
	gatehouseName = "gatehouse"

	// chestLoot is how many generated items a fresh chest starts with.
	chestLoot = 5

	merchantCharisma = 4
)

// buildWorld creates the demo entities. chest is the chest's inventory;
// when empty it is stocked from gen.
func buildWorld(workers int, gen *itemgen.Generator, chest *model.Inventory) (*sim.World, error) {
	world := sim.NewWorld(workers)

	merchant, err := newMerchant(gen)
	if err != nil {
		return nil, err
	}
	chestEntity, err := newChest(gen, chest)
	if err != nil {
		return nil, err
	}
	guard, err := newGuard()
	if err != nil {
		return nil, err
	}

	gatehouse := entity.New(gatehouseName)
	if err := gatehouse.AppendBehaviour(entity.Nest(guard)); err != nil {
		return nil, err
	}

	for _, e := range []*entity.Entity{merchant, chestEntity, guard, gatehouse} {
		if err := world.Add(e); err != nil {
			return nil, err
		}
	}
	return world, nil
}

func newMerchant(gen *itemgen.Generator) (*entity.Entity, error) {
	offer := gen.Generate()
	sheet, err := model.NewCharacter("Merchant", 100)
	if err != nil {
		return nil, err
	}
	sheet.SetBaseAttribute(model.AttributeCharisma, merchantCharisma)

	e := entity.New(merchantName)
	e.SetCharacter(sheet)

	behaviours := []entity.Behaviour{
		entity.NewLogging(merchantName, nil),
		// Small talk earns a discount worth the merchant's charisma.
		entity.NewCustom(func(ev entity.Event) entity.Event {
			if ev.Kind() != entity.KindTell {
				return ev
			}
			return entity.Tell(fmt.Sprintf("Fine wares, fair prices. %d%% off for you.",
				sheet.Attribute(model.AttributeCharisma)))
		}),
		entity.NewReaction(map[entity.Kind]entity.Event{
			entity.KindOpen: entity.Options(
				entity.Tell("Buy "+offer.Name()),
				entity.Tell("Sell"),
				entity.Close(),
			),
			entity.KindPull:  entity.Give(offer),
			entity.KindClose: entity.Tell("Come back soon."),
		}),
	}
	for _, b := range behaviours {
		if err := e.AppendBehaviour(b); err != nil {
			return nil, fmt.Errorf("merchant: %w", err)
		}
	}
	return e, nil
}

func newChest(gen *itemgen.Generator, inv *model.Inventory) (*entity.Entity, error) {
	if inv.Len() == 0 {
		for range chestLoot {
			if err := inv.Insert(gen.Generate()); err != nil {
				break
			}
		}
	}

	e := entity.New(chestName)
	e.SetInventory(inv)
	if err := e.AppendBehaviour(entity.NewPickup(inv)); err != nil {
		return nil, err
	}
	if err := e.AppendBehaviour(entity.NewCustom(func(ev entity.Event) entity.Event {
		if ev.Kind() != entity.KindOpen {
			return ev
		}
		return entity.Tell(fmt.Sprintf("The chest holds %d stacks.", inv.Len()))
	})); err != nil {
		return nil, err
	}
	return e, nil
}

func newGuard() (*entity.Entity, error) {
	behaviour, err := script.Load("guard.lua", guardScript)
	if err != nil {
		return nil, err
	}
	e := entity.New(guardName)
	if err := e.AppendBehaviour(entity.NewLogging(guardName, nil)); err != nil {
		return nil, err
	}
	if err := e.AppendBehaviour(behaviour); err != nil {
		return nil, err
	}
	return e, nil
}
