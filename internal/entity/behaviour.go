package entity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/udisondev/rpgcore/internal/model"
)

// Behaviour turns an incoming event into an outgoing one.
// Implementations may keep state; they never reference the entity that owns them.
type Behaviour interface {
	HandleEvent(ev Event) Event
}

// Custom wraps a caller-supplied function. Used for tests and quick one-off reactions.
type Custom struct {
	handler func(Event) Event
}

// NewCustom creates a Custom behaviour around handler.
func NewCustom(handler func(Event) Event) *Custom {
	return &Custom{handler: handler}
}

func (c *Custom) HandleEvent(ev Event) Event {
	return c.handler(ev)
}

func (c *Custom) valid() bool {
	return c.handler != nil
}

// DefaultResponse ignores its input and always answers with the same line.
// Used for simple NPC dialogue stubs.
type DefaultResponse struct {
	response string
}

// NewDefaultResponse creates a DefaultResponse answering Tell(response).
func NewDefaultResponse(response string) *DefaultResponse {
	return &DefaultResponse{response: response}
}

func (d *DefaultResponse) HandleEvent(Event) Event {
	return Tell(d.response)
}

// Reaction answers specific event kinds with fixed events.
// Kinds without an entry pass through unchanged.
type Reaction struct {
	table map[Kind]Event
}

// NewReaction copies table into a new Reaction.
func NewReaction(table map[Kind]Event) *Reaction {
	r := &Reaction{table: make(map[Kind]Event, len(table))}
	for k, ev := range table {
		r.table[k] = ev.Clone()
	}
	return r
}

func (r *Reaction) HandleEvent(ev Event) Event {
	if out, ok := r.table[ev.Kind()]; ok {
		return out.Clone()
	}
	return ev
}

// Logging writes every event it sees at debug level and passes it on.
type Logging struct {
	name   string
	logger *slog.Logger
}

// NewLogging creates a Logging behaviour tagged with name.
// A nil logger means slog.Default().
func NewLogging(name string, logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{name: name, logger: logger}
}

func (l *Logging) HandleEvent(ev Event) Event {
	if !l.logger.Enabled(context.Background(), slog.LevelDebug) {
		return ev
	}
	l.logger.Debug("event received", "entity", l.name, "kind", ev.Kind().String(), "event", ev.String())
	return ev
}

func (l *Logging) valid() bool {
	return l.logger != nil
}

// Pickup stores given items in an inventory.
//
// Give(item) is inserted; a successful insert answers Nothing, an overflow
// answers Give(item) to hand the rejected item back. Every other event
// passes through unchanged.
type Pickup struct {
	inventory *model.Inventory
}

// NewPickup creates a Pickup behaviour that stores into inv.
// AppendBehaviour rejects a Pickup with a nil inventory.
func NewPickup(inv *model.Inventory) *Pickup {
	return &Pickup{inventory: inv}
}

func (p *Pickup) HandleEvent(ev Event) Event {
	item, ok := ev.Item()
	if !ok {
		return ev
	}
	if err := p.inventory.Insert(item); err != nil {
		var overflow *model.OverflowError
		if errors.As(err, &overflow) {
			return Give(overflow.Item)
		}
		return Give(item)
	}
	return Nothing()
}

func (p *Pickup) valid() bool {
	return p.inventory != nil
}
