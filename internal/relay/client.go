package relay

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is the live session for one authenticated connection: the
// verified identity, a profile snapshot taken at handshake time, and
// the outbound queue drained by writePump.
type Client struct {
	UserID      uuid.UUID
	Send        chan []byte
	ConnectedAt time.Time

	// Profile snapshot from the handshake lookup; used for typing and
	// call events so the hot path never hits the database.
	UserName string
	Email    string
	Avatar   string

	conn     *websocket.Conn
	dispatch func(c *Client, raw []byte)
	onClose  func(c *Client)
}

// closeConn force-closes the underlying connection. Used when a newer
// connection for the same identity evicts this one; the pumps notice
// and unwind through the normal disconnect path.
func (c *Client) closeConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// readPump pumps inbound frames into the dispatcher. It runs on the
// upgrade handler's goroutine and owns disconnect cleanup.
func (c *Client) readPump() {
	defer func() {
		if c.onClose != nil {
			c.onClose(c)
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if c.dispatch != nil {
			c.dispatch(c, raw)
		}
	}
}

// writePump pumps outbound frames from the Send queue to the socket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One envelope per frame; clients parse frames as single
			// JSON documents.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
