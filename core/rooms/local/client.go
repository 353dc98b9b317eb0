package local

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

type frame struct {
	messageType int
	data        []byte
}

type client struct {
	id    string
	name  string
	role  string
	owner bool
	// pendingReady is a client-ready sent before this client joined.
	pendingReady []byte

	conn *websocket.Conn
	send chan frame

	closeOnce sync.Once
	sendMu    sync.Mutex
	closed    bool
}

// enqueue queues f for writing. It reports false when the client's buffer is
// full.
func (c *client) enqueue(f frame) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}

	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *client) enqueueText(data []byte) bool {
	return c.enqueue(frame{messageType: websocket.TextMessage, data: data})
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
	})
}

func (c *client) writePump(h *Hub, rm *room) {
	defer c.conn.Close()
	for f := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
			h.leave(rm, c)
			// Drain so senders never see a full buffer on a dead connection.
			for range c.send {
			}
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *client) readPump(h *Hub, rm *room) {
	defer h.leave(rm, c)

	c.conn.SetReadLimit(maxMessageSize)
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if c.role != RoleParticipant {
				continue
			}
			h.broadcast(rm, c, messageType, data)
		case websocket.TextMessage:
			h.relayText(rm, c, data)
		}
	}
}
