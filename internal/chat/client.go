package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 8 << 10
	sendBufferSize = 64
)

// Client is one authenticated websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID string
	role   string

	// room is the session this client has joined, if any. Guarded by hub.mu.
	room string

	limiter *rate.Limiter
	logger  *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID, role string, limiter *rate.Limiter, logger *slog.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		userID:  userID,
		role:    role,
		limiter: limiter,
		logger:  logger.With("user_id", userID),
	}
}

// readPump consumes frames from the socket and hands them to the gateway
// until the connection drops.
func (c *Client) readPump(ctx context.Context, g *Gateway) {
	defer g.disconnect(ctx, c)

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("socket closed unexpectedly", "error", err)
			}
			return
		}
		g.dispatch(ctx, c, raw)
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with periodic pings. It exits when the hub closes the send channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply queues a frame for this client only, dropping it if the buffer is
// full.
func (c *Client) reply(frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}
