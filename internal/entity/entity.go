// Package entity implements actors that react to events through an ordered
// chain of behaviours.
//
// SendEvent folds the incoming event through the chain: the first behaviour
// sees the caller's event, every later one sees its predecessor's output, and
// the last output is the answer. An entity without behaviours answers Nothing.
// The fold keeps no state between calls, performs no I/O and does not recover
// panics raised by behaviours.
package entity

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/udisondev/rpgcore/internal/model"
)

var (
	// ErrBehaviourCycle is returned when appending a nested entity would make
	// an entity (transitively) delegate to itself.
	ErrBehaviourCycle = errors.New("behaviour would create a delegation cycle")

	// ErrNoEquipment is returned by Equip on an entity without a paperdoll.
	ErrNoEquipment = errors.New("entity has no equipment")

	// ErrInvalidBehaviour is returned when appending a nil behaviour or one
	// built without its required collaborator.
	ErrInvalidBehaviour = errors.New("invalid behaviour")
)

// Entity is a named actor owning a behaviour chain, and optionally an
// inventory, equipment and a character sheet.
//
// An Entity is itself a Behaviour, so one entity's reaction can be installed
// inside another entity's chain (see Nest).
//
// Entity is not safe for concurrent use.
type Entity struct {
	name       string
	behaviours []Behaviour
	inventory  *model.Inventory
	equipment  *model.Equipment
	character  *model.Character
}

// New creates an entity with nothing attached.
func New(name string) *Entity {
	return &Entity{name: name}
}

// Name returns the entity name.
func (e *Entity) Name() string {
	return e.name
}

// Len returns the number of attached behaviours.
func (e *Entity) Len() int {
	return len(e.behaviours)
}

// AppendBehaviour adds b to the end of the chain.
//
// Returns ErrInvalidBehaviour if b is nil (including a typed nil pointer) or
// lacks what it needs to run, such as a Pickup without an inventory.
// Returns ErrBehaviourCycle if b delegates to an entity that already reaches e
// (directly or through nested entities), which would loop forever on dispatch.
func (e *Entity) AppendBehaviour(b Behaviour) error {
	if isNil(b) {
		return fmt.Errorf("entity %q: behaviour is nil: %w", e.name, ErrInvalidBehaviour)
	}
	if v, ok := b.(validator); ok && !v.valid() {
		return fmt.Errorf("entity %q: %T is not initialised: %w", e.name, b, ErrInvalidBehaviour)
	}
	if d, ok := b.(delegator); ok {
		target := d.delegateTarget()
		if target.reaches(e) {
			return fmt.Errorf("entity %q nesting %q: %w", e.name, target.name, ErrBehaviourCycle)
		}
	}
	e.behaviours = append(e.behaviours, b)
	return nil
}

// SendEvent dispatches ev through the behaviour chain and returns the answer.
func (e *Entity) SendEvent(ev Event) Event {
	if len(e.behaviours) == 0 {
		return Nothing()
	}
	out := ev.Clone()
	for _, b := range e.behaviours {
		out = b.HandleEvent(out)
	}
	return out
}

// HandleEvent makes Entity a Behaviour. It is SendEvent.
func (e *Entity) HandleEvent(ev Event) Event {
	return e.SendEvent(ev)
}

// Inventory returns the attached inventory (nil if none).
func (e *Entity) Inventory() *model.Inventory {
	return e.inventory
}

// SetInventory attaches inv.
func (e *Entity) SetInventory(inv *model.Inventory) {
	e.inventory = inv
}

// Equipment returns the attached paperdoll (nil if none).
func (e *Entity) Equipment() *model.Equipment {
	return e.equipment
}

// SetEquipment attaches eq.
func (e *Entity) SetEquipment(eq *model.Equipment) {
	e.equipment = eq
}

// Character returns the attached character sheet (nil if none).
func (e *Entity) Character() *model.Character {
	return e.character
}

// SetCharacter attaches c as the entity's attribute sheet. The entity's
// equipment becomes c's paperdoll, and its inventory becomes c's inventory
// when c carries one.
func (e *Entity) SetCharacter(c *model.Character) {
	e.character = c
	if c == nil {
		return
	}
	e.equipment = c.Equipment()
	if inv := c.Inventory(); inv != nil {
		e.inventory = inv
	}
}

// Equip puts item into slot of the entity's paperdoll.
// See model.Equipment.Equip; returns ErrNoEquipment without a paperdoll.
func (e *Entity) Equip(slot model.EquipmentSlot, item model.Item) (model.Item, bool, error) {
	if e.equipment == nil {
		return model.Item{}, false, fmt.Errorf("entity %q: %w", e.name, ErrNoEquipment)
	}
	return e.equipment.Equip(slot, item)
}

// Reachable returns e followed by every entity a dispatch into e can run,
// through nested entities at any depth. Each entity appears once.
func (e *Entity) Reachable() []*Entity {
	var out []*Entity
	e.walk(func(cur *Entity) bool {
		out = append(out, cur)
		return true
	})
	return out
}

// delegator is implemented by behaviours that dispatch into another entity.
type delegator interface {
	delegateTarget() *Entity
}

// validator is implemented by behaviours that can be constructed without a
// required collaborator.
type validator interface {
	valid() bool
}

func (e *Entity) delegateTarget() *Entity {
	return e
}

// reaches reports whether dispatching into e can end up in target.
func (e *Entity) reaches(target *Entity) bool {
	found := false
	e.walk(func(cur *Entity) bool {
		found = cur == target
		return !found
	})
	return found
}

// walk visits e and the entities it delegates to, depth first, each once,
// until visit returns false.
func (e *Entity) walk(visit func(*Entity) bool) {
	seen := make(map[*Entity]struct{})
	stack := []*Entity{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		if !visit(cur) {
			return
		}
		for i := len(cur.behaviours) - 1; i >= 0; i-- {
			if d, ok := cur.behaviours[i].(delegator); ok {
				stack = append(stack, d.delegateTarget())
			}
		}
	}
}

func isNil(b Behaviour) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Nested delegates to another entity's chain.
type Nested struct {
	target *Entity
}

// Nest wraps target so its reaction can be appended to another entity.
func Nest(target *Entity) *Nested {
	return &Nested{target: target}
}

// Target returns the wrapped entity.
func (n *Nested) Target() *Entity {
	return n.target
}

func (n *Nested) HandleEvent(ev Event) Event {
	return n.target.SendEvent(ev)
}

func (n *Nested) delegateTarget() *Entity {
	return n.target
}

func (n *Nested) valid() bool {
	return n.target != nil
}
