package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one live websocket connection tracked by the hub.
type Client struct {
	ID          string
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	origin      string
	isWeb       bool
	connectedAt time.Time

	// rooms this client subscribed to, guarded by the hub mutex.
	rooms map[string]struct{}
}

// isWebOrigin classifies a connection as a browser client. This is a UX
// heuristic for role assignment, not a security boundary: any client can
// spoof an Origin header. Mobile/native clients send no Origin at all.
func isWebOrigin(origin string) bool {
	return origin != "" &&
		(strings.Contains(origin, "localhost") || strings.Contains(origin, "http"))
}

// NewClient wraps an upgraded websocket connection. The caller must follow
// up with Register and start the pumps.
func (h *Hub) NewClient(conn *websocket.Conn, origin string) *Client {
	return &Client{
		ID:          uuid.NewString(),
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, h.opts.SendBufferSize),
		origin:      origin,
		isWeb:       isWebOrigin(origin),
		connectedAt: time.Now(),
		rooms:       make(map[string]struct{}),
	}
}

// queue enqueues an outbound frame without blocking the hub. A client that
// cannot drain its buffer is dropped rather than stalling broadcasts.
func (c *Client) queue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ReadPump consumes inbound frames until the connection dies, then funnels
// the client through the disconnect path. A missed pong deadline surfaces
// here as a read error, so silent admin deaths are detected by the same
// heartbeat that keeps the connection open.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.HeartbeatTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.HeartbeatTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed",
					zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.hub.sendError(c, "malformed message")
			continue
		}
		c.hub.Dispatch(c, env)
	}
}

// WritePump flushes queued frames and drives the heartbeat pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.opts.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

const maxMessageBytes = 4096
