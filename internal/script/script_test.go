package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rpgcore/internal/entity"
	"github.com/udisondev/rpgcore/internal/model"
)

const guardScript = `
local greeted = 0

function handle(event)
  if event.kind == "tell" then
    greeted = greeted + 1
    return {kind = "tell", text = "halt, " .. event.text .. " #" .. greeted}
  end
  if event.kind == "give" then
    log("took " .. event.item.name)
    return nil
  end
  if event.kind == "open" then
    return {kind = "options", options = {{kind = "push"}, {kind = "tell", text = "leave"}}}
  end
  if event.kind == "pull" then
    return {kind = "give", item = {name = "Key", category = "usable", rarity = "rare", stack_limit = 1}}
  end
  if event.kind == "options" then
    return event.options[#event.options]
  end
  return event
end
`

func loadGuard(t *testing.T) *Behaviour {
	t.Helper()
	b, err := Load("guard.lua", guardScript)
	require.NoError(t, err)
	return b
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("broken.lua", "function handle(")
	assert.Error(t, err)

	_, err = Load("nohandler.lua", "x = 1")
	assert.ErrorIs(t, err, ErrNoHandler)

	_, err = Load("boom.lua", `error("boom")`)
	assert.Error(t, err)
}

func TestBehaviour_Tell(t *testing.T) {
	b := loadGuard(t)

	assert.True(t, b.HandleEvent(entity.Tell("stranger")).Equal(entity.Tell("halt, stranger #1")))
	// Script globals persist between calls.
	assert.True(t, b.HandleEvent(entity.Tell("again")).Equal(entity.Tell("halt, again #2")))
}

func TestBehaviour_NilIsNothing(t *testing.T) {
	b := loadGuard(t)
	item := model.MustNewItem("Bread", model.ItemCategoryConsumableFood, nil, 4, model.RarityCommon)

	assert.True(t, b.HandleEvent(entity.Give(item)).IsNothing())
}

func TestBehaviour_ReturnsItemsAndOptions(t *testing.T) {
	b := loadGuard(t)

	got := b.HandleEvent(entity.Pull())
	item, ok := got.Item()
	require.True(t, ok)
	assert.Equal(t, model.MustNewItem("Key", model.ItemCategoryUsable, nil, 1, model.RarityRare), item)

	got = b.HandleEvent(entity.Open())
	assert.True(t, got.Equal(entity.Options(entity.Push(), entity.Tell("leave"))), got.String())

	got = b.HandleEvent(entity.Options(entity.Push(), entity.Close()))
	assert.True(t, got.Equal(entity.Close()), got.String())
}

func TestBehaviour_Passthrough(t *testing.T) {
	b := loadGuard(t)
	item := model.MustNewItem("Potion", model.ItemCategoryConsumablePotion,
		&model.Influence{Attribute: model.AttributeLuck, Amount: -1}, 16, model.RarityCommon)

	// Unhandled kinds come back as they went in, including nested items.
	in := entity.Options(entity.Give(item), entity.Close())
	b2, err := Load("echo.lua", "function handle(e) return e end")
	require.NoError(t, err)
	assert.True(t, b2.HandleEvent(in).Equal(in))
	assert.True(t, b.HandleEvent(entity.Close()).Equal(entity.Close()))
}

func TestBehaviour_RuntimeErrorIsNothing(t *testing.T) {
	b, err := Load("faulty.lua", `
function handle(e)
  if e.kind == "push" then error("nope") end
  if e.kind == "pull" then return 42 end
  if e.kind == "open" then return {kind = "dance"} end
  if e.kind == "close" then return {} end
  return e
end`)
	require.NoError(t, err)

	for _, ev := range []entity.Event{entity.Push(), entity.Pull(), entity.Open(), entity.Close()} {
		assert.True(t, b.HandleEvent(ev).IsNothing(), ev.String())
	}
	_, err = b.Call(entity.Push())
	assert.Error(t, err)

	// The state stays usable after a failure.
	assert.True(t, b.HandleEvent(entity.Tell("ok")).Equal(entity.Tell("ok")))
}

func TestBehaviour_InEntityChain(t *testing.T) {
	e := entity.New("gate")
	require.NoError(t, e.AppendBehaviour(entity.NewDefaultResponse("who goes there")))
	require.NoError(t, e.AppendBehaviour(loadGuard(t)))

	got := e.SendEvent(entity.Nothing())
	assert.True(t, got.Equal(entity.Tell("halt, who goes there #1")), got.String())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.lua")
	require.NoError(t, os.WriteFile(path, []byte(guardScript), 0o600))

	b, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, b.Name())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}
