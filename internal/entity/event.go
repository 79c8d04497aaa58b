package entity

import (
	"encoding/json"
	"fmt"

	"github.com/udisondev/rpgcore/internal/model"
)

// Kind tags an Event.
type Kind uint8

const (
	KindNothing Kind = iota
	KindTell
	KindGive
	KindOptions
	KindPush
	KindPull
	KindOpen
	KindClose
	kindCount
)

var kindNames = [kindCount]string{"nothing", "tell", "give", "options", "push", "pull", "open", "close"}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind parses the name produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is a message passed to and between entities.
//
// The zero value is Nothing. Only the payload that belongs to the kind is
// set: Tell carries text, Give an item, Options a list of events.
type Event struct {
	kind    Kind
	text    string
	item    model.Item
	options []Event
}

// Nothing is the neutral event.
func Nothing() Event { return Event{} }

// Tell carries a line of dialogue.
func Tell(text string) Event { return Event{kind: KindTell, text: text} }

// Give hands an item over.
func Give(item model.Item) Event { return Event{kind: KindGive, item: item} }

// Options offers a choice between events. The slice is copied.
func Options(choices ...Event) Event {
	ev := Event{kind: KindOptions, options: make([]Event, len(choices))}
	for i, c := range choices {
		ev.options[i] = c.Clone()
	}
	return ev
}

func Push() Event  { return Event{kind: KindPush} }
func Pull() Event  { return Event{kind: KindPull} }
func Open() Event  { return Event{kind: KindOpen} }
func Close() Event { return Event{kind: KindClose} }

// Kind returns the event tag.
func (e Event) Kind() Kind { return e.kind }

// Text returns the Tell payload ("" for other kinds).
func (e Event) Text() string { return e.text }

// Item returns the Give payload.
func (e Event) Item() (model.Item, bool) {
	return e.item, e.kind == KindGive
}

// Options returns a copy of the Options payload.
func (e Event) Options() []Event {
	if e.kind != KindOptions {
		return nil
	}
	out := make([]Event, len(e.options))
	for i, o := range e.options {
		out[i] = o.Clone()
	}
	return out
}

// IsNothing reports whether e is the neutral event.
func (e Event) IsNothing() bool { return e.kind == KindNothing }

// Clone returns a deep copy.
func (e Event) Clone() Event {
	if e.options == nil {
		return e
	}
	cp := e
	cp.options = make([]Event, len(e.options))
	for i, o := range e.options {
		cp.options[i] = o.Clone()
	}
	return cp
}

// Equal reports whether two events carry the same content.
func (e Event) Equal(other Event) bool {
	if e.kind != other.kind || e.text != other.text || e.item != other.item {
		return false
	}
	if len(e.options) != len(other.options) {
		return false
	}
	for i := range e.options {
		if !e.options[i].Equal(other.options[i]) {
			return false
		}
	}
	return true
}

// String renders the event for logs.
func (e Event) String() string {
	switch e.kind {
	case KindTell:
		return fmt.Sprintf("tell(%q)", e.text)
	case KindGive:
		return fmt.Sprintf("give(%s)", e.item.Name())
	case KindOptions:
		return fmt.Sprintf("options(%d)", len(e.options))
	default:
		return e.kind.String()
	}
}

type eventJSON struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Item    *model.Item `json:"item,omitempty"`
	Options []Event     `json:"options,omitempty"`
}

// MarshalJSON encodes the event as {"kind": ..., payload}.
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{Kind: e.kind.String()}
	switch e.kind {
	case KindTell:
		out.Text = e.text
	case KindGive:
		item := e.item
		out.Item = &item
	case KindOptions:
		out.Options = e.options
		if out.Options == nil {
			out.Options = []Event{}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an event; Give requires a valid item.
func (e *Event) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}
	switch kind {
	case KindTell:
		*e = Tell(in.Text)
	case KindGive:
		if in.Item == nil {
			return fmt.Errorf("give event without item")
		}
		*e = Give(*in.Item)
	case KindOptions:
		*e = Options(in.Options...)
	default:
		*e = Event{kind: kind}
	}
	return nil
}
