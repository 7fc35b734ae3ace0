package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one websocket connection. The room loop owns it; only the
// pumps touch the socket.
type client struct {
	id   uint64
	conn *websocket.Conn
	out  chan []byte
	once sync.Once
	done chan struct{}
}

func newClient(id uint64, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		out:  make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// send queues b without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *client) send(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- b:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// readPump forwards client messages to the room until the socket fails.
func (c *client) readPump(inbox chan<- any) {
	defer c.close()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case inbox <- inbound{id: c.id, raw: msg}:
		case <-c.done:
			return
		}
	}
}

// writePump drains queued messages and keeps the connection alive with
// pings. It closes the socket when the client is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
