package ws

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rpgcore/internal/config"
	"github.com/udisondev/rpgcore/internal/entity"
	"github.com/udisondev/rpgcore/internal/model"
	"github.com/udisondev/rpgcore/internal/sim"
)

func testWorld(t *testing.T) *sim.World {
	t.Helper()
	w := sim.NewWorld(2)

	merchant := entity.New("merchant")
	require.NoError(t, merchant.AppendBehaviour(entity.NewReaction(map[entity.Kind]entity.Event{
		entity.KindOpen: entity.Options(entity.Tell("buy"), entity.Tell("sell"), entity.Close()),
	})))
	require.NoError(t, w.Add(merchant))

	inv, err := model.NewInventory(1)
	require.NoError(t, err)
	chest := entity.New("chest")
	chest.SetInventory(inv)
	require.NoError(t, chest.AppendBehaviour(entity.NewPickup(inv)))
	require.NoError(t, w.Add(chest))
	return w
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	var resp map[string]any
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestServer_Dispatch(t *testing.T) {
	s := NewServer(config.ServerConfig{}, testWorld(t))
	httpSrv := httptest.NewServer(s.Handler())
	defer httpSrv.Close()

	conn := dial(t, httpSrv)

	resp := roundTrip(t, conn, `{"id":"1","entity":"merchant","event":{"kind":"open"}}`)
	assert.Equal(t, "1", resp["id"])
	assert.Equal(t, "merchant", resp["entity"])
	ev := resp["event"].(map[string]any)
	assert.Equal(t, "options", ev["kind"])
	assert.Len(t, ev["options"], 3)

	resp = roundTrip(t, conn, `{"entity":"merchant","event":{"kind":"tell","text":"hi"}}`)
	assert.Equal(t, map[string]any{"kind": "tell", "text": "hi"}, resp["event"])
}

func TestServer_PickupOverflow(t *testing.T) {
	s := NewServer(config.ServerConfig{}, testWorld(t))
	httpSrv := httptest.NewServer(s.Handler())
	defer httpSrv.Close()

	conn := dial(t, httpSrv)
	give := `{"entity":"chest","event":{"kind":"give","item":{"name":"Rock","category":"prop","rarity":"common","stack_limit":1}}}`

	resp := roundTrip(t, conn, give)
	assert.Equal(t, map[string]any{"kind": "nothing"}, resp["event"])

	resp = roundTrip(t, conn, give)
	ev := resp["event"].(map[string]any)
	assert.Equal(t, "give", ev["kind"], "full chest hands the item back")
}

func TestServer_Errors(t *testing.T) {
	s := NewServer(config.ServerConfig{}, testWorld(t))
	httpSrv := httptest.NewServer(s.Handler())
	defer httpSrv.Close()

	conn := dial(t, httpSrv)

	tests := map[string]string{
		"not json":        `hello`,
		"missing entity":  `{"event":{"kind":"open"}}`,
		"unknown kind":    `{"entity":"merchant","event":{"kind":"dance"}}`,
		"extra field":     `{"entity":"merchant","event":{"kind":"open"},"x":1}`,
		"bad stack":       `{"entity":"chest","event":{"kind":"give","item":{"name":"R","category":"prop","rarity":"common","stack_limit":0}}}`,
		"invalid item":    `{"entity":"chest","event":{"kind":"give","item":{"name":"R","category":"prop","rarity":"common","stack_limit":5}}}`,
		"give no item":    `{"entity":"chest","event":{"kind":"give"}}`,
		"unknown entity":  `{"entity":"dragon","event":{"kind":"open"}}`,
		"empty entity":    `{"entity":"","event":{"kind":"open"}}`,
		"fractional size": `{"entity":"chest","event":{"kind":"give","item":{"name":"R","category":"prop","rarity":"common","stack_limit":1.5}}}`,
	}
	for name, frame := range tests {
		t.Run(name, func(t *testing.T) {
			resp := roundTrip(t, conn, frame)
			assert.NotEmpty(t, resp["error"])
			assert.Nil(t, resp["event"])
		})
	}

	// The connection survives rejected frames.
	resp := roundTrip(t, conn, `{"entity":"merchant","event":{"kind":"push"}}`)
	assert.Equal(t, map[string]any{"kind": "push"}, resp["event"])
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"id":"7","entity":"guard","event":{"kind":"options","options":[{"kind":"tell","text":"a"},{"kind":"close"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "7", req.ID)
	assert.Equal(t, "guard", req.Entity)
	assert.True(t, req.Event.Equal(entity.Options(entity.Tell("a"), entity.Close())))

	_, err = DecodeRequest([]byte(`{"entity":"guard"}`))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := NewServer(config.ServerConfig{ReadTimeout: 5 * time.Second, WriteTimeout: time.Second}, testWorld(t))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "server closes client connections on shutdown")
}

// gate blocks every dispatch until released.
type gate struct {
	entered  chan struct{}
	release  chan struct{}
	finished atomic.Bool
}

func (g *gate) Dispatch(string, entity.Event) (entity.Event, error) {
	g.entered <- struct{}{}
	<-g.release
	g.finished.Store(true)
	return entity.Nothing(), nil
}

func TestServer_ShutdownWaitsForDispatch(t *testing.T) {
	g := &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewServer(config.ServerConfig{ReadTimeout: 5 * time.Second, WriteTimeout: time.Second}, g)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()
	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"entity":"chest","event":{"kind":"push"}}`)))

	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch not reached")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("Serve returned while a dispatch was running")
	case <-time.After(200 * time.Millisecond):
	}

	close(g.release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.True(t, g.finished.Load())
	assert.Zero(t, s.Clients())
}
