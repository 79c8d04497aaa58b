package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client sits between one WebSocket connection and the Dispatcher.
type client struct {
	srv  *Server
	conn *websocket.Conn
	send chan Response

	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			slog.Debug("closing websocket connection", "error", err)
		}
	})
}

// readPump reads frames until the connection fails and queues one response per frame.
func (c *client) readPump() {
	defer func() {
		c.srv.unregister(c)
		c.close()
		slog.Info("client disconnected", "remote", c.conn.RemoteAddr())
	}()

	pongWait := c.srv.cfg.ReadTimeout
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := c.srv.handle(data)
		if resp.Error != "" {
			slog.Debug("frame rejected", "remote", c.conn.RemoteAddr(), "error", resp.Error)
		}

		select {
		case c.send <- resp:
		case <-c.done:
			return
		}
	}
}

// writePump writes queued responses and keeps the connection alive with pings.
func (c *client) writePump() {
	writeWait := c.srv.cfg.WriteTimeout
	pingPeriod := (c.srv.cfg.ReadTimeout * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case resp := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("failed to set write deadline", "error", err)
			}
			if err := c.conn.WriteJSON(resp); err != nil {
				slog.Debug("write json message failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("failed to set ping write deadline", "error", err)
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("ping failed", "error", err)
				return
			}
		}
	}
}
