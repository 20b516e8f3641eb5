package socket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Messages queued per client before new ones are dropped.
	sendBuffer = 16
)

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Client is one websocket connection belonging to User. The stream is
// one-way: the peer only sends control frames.
type Client struct {
	ID   string
	User string

	ws   *websocket.Conn
	once sync.Once
	done chan struct{}
	send chan Message
}

func NewClient(ws *websocket.Conn, user string) *Client {
	return &Client{
		ID:   uuid.New().String(),
		User: user,

		ws:   ws,
		done: make(chan struct{}),
		send: make(chan Message, sendBuffer),
	}
}

// Emit queues m for the peer. It never blocks; when the client is closed
// or its queue is full the message is dropped and false is returned.
func (c *Client) Emit(m Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

// Close stops Serve. Idempotent.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Serve writes queued messages and pings until the peer goes away or Close
// is called.
func (c *Client) Serve() error {
	defer c.ws.Close()

	go c.read()

	t := time.NewTicker(pingPeriod)
	defer t.Stop()

	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil

		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				return err
			}

		// PING.
		case <-t.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return err
			}
		}
	}
}

// read drains the peer so control frames are handled, and closes the
// client once the peer disconnects.
func (c *Client) read() {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			return
		}
	}
}
