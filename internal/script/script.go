// Package script runs entity behaviours written in Lua.
//
// A script must define a global function handle(event). Events cross the
// boundary as tables shaped like their JSON form:
//
//	{kind = "tell", text = "hi"}
//	{kind = "give", item = {name = "Bread", category = "consumable_food", rarity = "common", stack_limit = 16}}
//	{kind = "options", options = {{kind = "push"}, {kind = "close"}}}
//
// handle returns the answer as a table of the same shape; nil means nothing.
// Scripts may call log(message) to write through slog.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/udisondev/rpgcore/internal/entity"
)

const (
	handlerName = "handle"

	// maxTableDepth bounds table conversion, guarding against self-referencing tables.
	maxTableDepth = 32
)

// ErrNoHandler is returned by Load when the script does not define handle.
var ErrNoHandler = errors.New("script does not define a handle function")

// Behaviour is an entity.Behaviour backed by a Lua state.
// It is safe for concurrent use; calls into the state are serialised.
type Behaviour struct {
	name   string
	logger *slog.Logger

	mu    sync.Mutex
	state *lua.State
}

// Load compiles and runs source once, then checks that it defined handle.
// name is used in error messages and logs.
func Load(name, source string) (*Behaviour, error) {
	b := &Behaviour{
		name:   name,
		logger: slog.Default().With("script", name),
		state:  lua.NewState(),
	}
	lua.OpenLibraries(b.state)
	b.state.Register("log", b.luaLog)

	if err := lua.LoadBuffer(b.state, source, name, "t"); err != nil {
		return nil, fmt.Errorf("compile script %s: %w", name, err)
	}
	if err := b.state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run script %s: %w", name, err)
	}

	b.state.Global(handlerName)
	ok := b.state.IsFunction(-1)
	b.state.Pop(1)
	if !ok {
		return nil, fmt.Errorf("script %s: %w", name, ErrNoHandler)
	}
	return b, nil
}

// LoadFile reads a script from disk and loads it under its path.
func LoadFile(path string) (*Behaviour, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return Load(path, string(data))
}

// Name returns the name the script was loaded under.
func (b *Behaviour) Name() string {
	return b.name
}

// HandleEvent calls handle(event). Runtime errors and malformed answers are
// logged and turn into Nothing.
func (b *Behaviour) HandleEvent(ev entity.Event) entity.Event {
	out, err := b.Call(ev)
	if err != nil {
		b.logger.Warn("script failed", "event", ev.String(), "error", err)
		return entity.Nothing()
	}
	return out
}

// Call is HandleEvent with the error exposed.
func (b *Behaviour) Call(ev entity.Event) (entity.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.state.SetTop(0)

	arg, err := eventToValue(ev)
	if err != nil {
		return entity.Nothing(), err
	}

	b.state.Global(handlerName)
	pushValue(b.state, arg)
	if err := b.state.ProtectedCall(1, 1, 0); err != nil {
		return entity.Nothing(), fmt.Errorf("calling handle: %w", err)
	}
	return toEvent(b.state, -1)
}

func (b *Behaviour) luaLog(l *lua.State) int {
	msg := lua.CheckString(l, 1)
	b.logger.Info(msg)
	return 0
}

// eventToValue turns an event into plain maps and slices through its JSON form.
func eventToValue(ev entity.Event) (map[string]any, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	return out, nil
}

func toEvent(l *lua.State, index int) (entity.Event, error) {
	switch l.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return entity.Nothing(), nil
	case lua.TypeTable:
	default:
		return entity.Nothing(), fmt.Errorf("handle returned %s, want table or nil", lua.TypeNameOf(l, index))
	}

	value, err := luaToGo(l, index, 0)
	if err != nil {
		return entity.Nothing(), err
	}
	if value == nil {
		return entity.Nothing(), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return entity.Nothing(), fmt.Errorf("encoding answer: %w", err)
	}
	var ev entity.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return entity.Nothing(), fmt.Errorf("invalid answer: %w", err)
	}
	return ev, nil
}

func pushValue(l *lua.State, v any) {
	switch v := v.(type) {
	case nil:
		l.PushNil()
	case string:
		l.PushString(v)
	case float64:
		l.PushNumber(v)
	case bool:
		l.PushBoolean(v)
	case []any:
		l.NewTable()
		for i, elem := range v {
			pushValue(l, elem)
			l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		l.NewTable()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pushValue(l, v[k])
			l.SetField(-2, k)
		}
	default:
		l.PushString(fmt.Sprint(v))
	}
}

func luaToGo(l *lua.State, index, depth int) (any, error) {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s, nil
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return n, nil
	case lua.TypeBoolean:
		return l.ToBoolean(index), nil
	case lua.TypeNil, lua.TypeNone:
		return nil, nil
	case lua.TypeTable:
		if depth >= maxTableDepth {
			return nil, fmt.Errorf("table nested deeper than %d levels", maxTableDepth)
		}
		return tableToGo(l, index, depth+1)
	default:
		return nil, fmt.Errorf("unsupported lua value %s", lua.TypeNameOf(l, index))
	}
}

// tableToGo converts a sequence to []any and anything else to a map keyed by
// its string keys. An empty table is nil: Lua cannot tell {} from an empty list.
func tableToGo(l *lua.State, index, depth int) (any, error) {
	index = l.AbsIndex(index)

	if n := l.RawLength(index); n > 0 {
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			l.RawGetInt(index, i)
			v, err := luaToGo(l, -1, depth)
			l.Pop(1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	out := make(map[string]any)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			v, err := luaToGo(l, -1, depth)
			if err != nil {
				l.Pop(2)
				return nil, err
			}
			out[key] = v
		}
		l.Pop(1)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
