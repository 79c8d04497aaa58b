package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rpgcore/internal/entity"
	"github.com/udisondev/rpgcore/internal/model"
)

func echo(t *testing.T, name, reply string) *entity.Entity {
	t.Helper()
	e := entity.New(name)
	require.NoError(t, e.AppendBehaviour(entity.NewDefaultResponse(reply)))
	return e
}

func TestWorld_AddGetRemove(t *testing.T) {
	w := NewWorld(2)

	require.NoError(t, w.Add(echo(t, "bob", "hi")))
	require.NoError(t, w.Add(echo(t, "alice", "hey")))
	assert.ErrorIs(t, w.Add(echo(t, "bob", "again")), ErrDuplicateEntity)
	assert.Error(t, w.Add(nil))

	assert.Equal(t, 2, w.Count())
	assert.Equal(t, []string{"alice", "bob"}, w.Names())

	e, err := w.Get("bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", e.Name())

	assert.True(t, w.Remove("bob"))
	assert.False(t, w.Remove("bob"))
	assert.Equal(t, 1, w.Count())

	_, err = w.Get("bob")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestWorld_Dispatch(t *testing.T) {
	w := NewWorld(0)
	require.NoError(t, w.Add(echo(t, "merchant", "buy something")))

	got, err := w.Dispatch("merchant", entity.Open())
	require.NoError(t, err)
	assert.True(t, got.Equal(entity.Tell("buy something")))

	got, err = w.Dispatch("ghost", entity.Open())
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.True(t, got.IsNothing())
}

func TestWorld_DispatchSerialisesPerEntity(t *testing.T) {
	w := NewWorld(8)

	var inside, maxInside atomic.Int32
	counter := 0
	e := entity.New("counter")
	require.NoError(t, e.AppendBehaviour(entity.NewCustom(func(ev entity.Event) entity.Event {
		n := inside.Add(1)
		if n > maxInside.Load() {
			maxInside.Store(n)
		}
		counter++
		time.Sleep(time.Millisecond)
		inside.Add(-1)
		return ev
	})))
	require.NoError(t, w.Add(e))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Dispatch("counter", entity.Push())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestWorld_DispatchLocksNestedEntities(t *testing.T) {
	w := NewWorld(4)

	inv, err := model.NewInventory(1000)
	require.NoError(t, err)
	chest := entity.New("chest")
	chest.SetInventory(inv)
	require.NoError(t, chest.AppendBehaviour(entity.NewPickup(inv)))
	require.NoError(t, w.Add(chest))

	porter := entity.New("porter")
	require.NoError(t, porter.AppendBehaviour(entity.Nest(chest)))
	require.NoError(t, w.Add(porter))

	const n = 200
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := "chest"
			if i%2 == 1 {
				target = "porter"
			}
			pebble := model.MustNewItem(fmt.Sprintf("Pebble %d", i), model.ItemCategoryProp, nil, 1, model.RarityCommon)
			resp, err := w.Dispatch(target, entity.Give(pebble))
			assert.NoError(t, err)
			assert.True(t, resp.IsNothing())
		}()
	}
	wg.Wait()

	assert.Equal(t, n, inv.Len())
}

func TestWorld_DispatchSerialisesSharedUnregisteredTarget(t *testing.T) {
	w := NewWorld(4)

	var inside, maxInside atomic.Int32
	shared := entity.New("well")
	require.NoError(t, shared.AppendBehaviour(entity.NewCustom(func(ev entity.Event) entity.Event {
		n := inside.Add(1)
		for {
			old := maxInside.Load()
			if n <= old || maxInside.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inside.Add(-1)
		return ev
	})))

	for _, name := range []string{"north", "south", "east"} {
		e := entity.New(name)
		require.NoError(t, e.AppendBehaviour(entity.Nest(shared)))
		require.NoError(t, w.Add(e))
	}

	for range 5 {
		_, err := w.Tick(context.Background(), entity.Push())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestWorld_TickVisitsEveryEntityOnce(t *testing.T) {
	const n = 50
	w := NewWorld(4)

	calls := make([]atomic.Int32, n)
	var inFlight, peak atomic.Int32
	for i := range n {
		e := entity.New(fmt.Sprintf("npc-%02d", i))
		require.NoError(t, e.AppendBehaviour(entity.NewCustom(func(entity.Event) entity.Event {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			calls[i].Add(1)
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			return entity.Tell(e.Name())
		})))
		require.NoError(t, w.Add(e))
	}

	answers, err := w.Tick(context.Background(), entity.Push())
	require.NoError(t, err)

	require.Len(t, answers, n)
	for i := range n {
		name := fmt.Sprintf("npc-%02d", i)
		assert.Equal(t, int32(1), calls[i].Load(), name)
		assert.True(t, answers[name].Equal(entity.Tell(name)))
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestWorld_TickCancelled(t *testing.T) {
	w := NewWorld(1)
	require.NoError(t, w.Add(echo(t, "a", "x")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Tick(ctx, entity.Push())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorld_Run(t *testing.T) {
	w := NewWorld(2)
	require.NoError(t, w.Add(echo(t, "guard", "halt")))
	require.NoError(t, w.Add(entity.New("rock")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, 5*time.Millisecond, entity.Push(), func(name string, resp entity.Event) {
			select {
			case seen <- name + ":" + resp.Text():
			default:
			}
		})
	}()

	select {
	case got := <-seen:
		assert.Equal(t, "guard:halt", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick observed")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	assert.Error(t, w.Run(context.Background(), 0, entity.Push(), nil))
}
