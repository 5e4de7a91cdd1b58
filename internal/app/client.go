package app

import (
	"sync"

	"trivia-session-service/internal/domain"
)

// Client is the server-side handle of one connection. Rooms push messages into its
// outbox; the transport drains it from a single writer goroutine.
type Client struct {
	ID string

	mu     sync.Mutex
	closed bool
	outbox chan domain.Message
}

// NewClient returns an open client whose outbox holds buffer messages (64 when buffer <= 0).
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{ID: id, outbox: make(chan domain.Message, buffer)}
}

// Outbox is closed once the client is closed.
func (c *Client) Outbox() <-chan domain.Message {
	return c.outbox
}

// Deliver never blocks. A full outbox closes the client: dropping one message would
// break event ordering, so a slow reader loses the connection instead.
func (c *Client) Deliver(msg domain.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.outbox <- msg:
		return true
	default:
		c.closed = true
		close(c.outbox)
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.outbox)
	}
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
