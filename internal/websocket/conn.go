package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/helmetkart/helmet-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // below pongWait
	maxMessageSize = 4 * 1024          // clients only send keepalives
)

// Conn is the socket of one order-update session.
type Conn struct {
	*websocket.Conn
}

// Serve runs the session until the peer goes away or the hub drops it. The
// writer runs on its own goroutine; Serve blocks on the reader.
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err == nil {
			c.Hub.HandleClientMessage(c, payload)
			continue
		}

		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			logger.Debug("Order update session closed", map[string]interface{}{
				"user_id": c.UserID,
				"error":   err.Error(),
			})
		}
		return
	}
}

// writeLoop drains Send and keeps the session alive with pings. A closed
// Send channel means the hub dropped the session.
func (c *Client) writeLoop() {
	keepalive := time.NewTicker(pingPeriod)
	defer func() {
		keepalive.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case update, open := <-c.Send:
			if !open {
				c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, update); err != nil {
				logger.Warn("Failed to push order update", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
				return
			}

		case <-keepalive.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}
