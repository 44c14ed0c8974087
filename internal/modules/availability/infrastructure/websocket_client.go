package infrastructure

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket subscriber bound to a restaurant's availability stream.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	userID       string
	restaurantID string
	closeOnce    sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, restaurantID string, buf int) *Client {
	if buf <= 0 {
		buf = 16
	}
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, buf),
		userID:       userID,
		restaurantID: restaurantID,
	}
}

// Start attaches the client to the hub and launches both pumps.
func (c *Client) Start() {
	c.hub.attach(c)
	go c.writePump()
	go c.readPump()
}

// Enqueue buffers a raw frame for the write pump; full buffers drop the frame.
func (c *Client) Enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.detach(c)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.detach(c)
				return
			}
		}
	}
}

// readPump drains inbound frames so close and ping/pong handling works; the
// availability stream carries no client commands.
func (c *Client) readPump() {
	defer c.hub.detach(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
