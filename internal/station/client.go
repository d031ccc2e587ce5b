package station

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	readWait       = 60 * time.Second
	maxMessageSize = 32 << 10
	sendQueueSize  = 64
)

type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Done chan struct{}

	gateway      *Gateway
	connectedAt  time.Time
	lastPongUnix atomic.Int64

	mu      sync.Mutex
	label   string
	version string

	unregisterOnce sync.Once
	closeOnce      sync.Once
}

func NewClient(id string, conn *websocket.Conn, g *Gateway) *Client {
	client := &Client{
		ID:          id,
		Conn:        conn,
		Send:        make(chan []byte, sendQueueSize),
		Done:        make(chan struct{}),
		gateway:     g,
		connectedAt: time.Now().UTC(),
	}
	client.markPong(client.connectedAt)
	return client
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) writePump() {
	defer c.unregister()
	defer c.closeConn()

	for {
		select {
		case <-c.Done:
			return
		case message := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer c.unregister()
	defer c.closeConn()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
		return
	}
	c.Conn.SetPongHandler(func(_ string) error {
		now := time.Now().UTC()
		c.markPong(now)
		return c.Conn.SetReadDeadline(now.Add(readWait))
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		c.markPong(time.Now().UTC())
		c.gateway.HandleMessage(c, message)
	}
}

func (c *Client) unregister() {
	c.unregisterOnce.Do(func() {
		if c.gateway != nil {
			c.gateway.Unregister(c)
		}
	})
}

func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		close(c.Done)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

func (c *Client) LastPong() time.Time {
	unix := c.lastPongUnix.Load()
	if unix <= 0 {
		return time.Time{}
	}
	return time.Unix(0, unix).UTC()
}

func (c *Client) markPong(ts time.Time) {
	c.lastPongUnix.Store(ts.UnixNano())
}

func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

func (c *Client) setMeta(label, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if label != "" {
		c.label = label
	}
	if version != "" {
		c.version = version
	}
}

func (c *Client) meta() (label, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label, c.version
}
