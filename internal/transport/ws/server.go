// Package ws exposes entities over WebSocket.
//
// A client sends JSON frames {"entity": name, "event": {...}} to /ws and gets
// one frame back per request, either {"entity": name, "event": {...}} or
// {"error": "..."}. Frames are validated against an embedded JSON schema
// before they are decoded.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/rpgcore/internal/config"
	"github.com/udisondev/rpgcore/internal/entity"
)

const (
	maxMessageSize = 64 * 1024
	sendQueueSize  = 64
	shutdownGrace  = 5 * time.Second
)

// Dispatcher routes an event to a named entity. *sim.World implements it.
type Dispatcher interface {
	Dispatch(name string, ev entity.Event) (entity.Event, error)
}

// Server accepts WebSocket clients and forwards their events to a Dispatcher.
type Server struct {
	cfg        config.ServerConfig
	dispatcher Dispatcher
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	listener net.Listener
	clients  map[*client]struct{}
	closed   bool
	// pumps counts running read and write pumps.
	pumps sync.WaitGroup
}

// NewServer creates a server. cfg supplies the listen address and the
// read/write deadlines.
func NewServer(cfg config.ServerConfig, dispatcher Dispatcher) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP routes: /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Addr returns the address the server is listening on.
// Returns nil if the server hasn't started yet.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run listens on cfg.Addr() and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. Used for testing with custom listeners.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("websocket server started", "address", ln.Addr())
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.closeClients()
		s.pumps.Wait()
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	// Hijacked connections are not closed by Shutdown.
	s.closeClients()
	// No dispatch may still be running once Serve returns.
	s.pumps.Wait()

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	slog.Info("websocket server stopped")
	return nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		srv:  s,
		conn: conn,
		send: make(chan Response, sendQueueSize),
		done: make(chan struct{}),
	}
	if !s.register(c) {
		_ = conn.Close()
		return
	}

	slog.Info("client connected", "remote", conn.RemoteAddr())
	go func() {
		defer s.pumps.Done()
		c.writePump()
	}()
	defer s.pumps.Done()
	c.readPump()
}

// register adds c and accounts for its two pumps. Returns false once the
// server is shutting down.
func (s *Server) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	s.pumps.Add(2)
	return true
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func (s *Server) closeClients() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// handle turns one raw frame into the response to send back.
func (s *Server) handle(data []byte) Response {
	req, err := DecodeRequest(data)
	if err != nil {
		return errorResponse("", err)
	}
	ev, err := s.dispatcher.Dispatch(req.Entity, req.Event)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return eventResponse(req, ev)
}
