// Package hub fans server messages out to connected websocket clients.
package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/pkg/types"
)

var ErrUnknownClient = errors.New("client not connected")
var ErrClientSlow = errors.New("client outbox full")

// Client is one connection's outbound queue. The ws writer drains Outbox until
// it is closed.
type Client struct {
	ID   string
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *Client) Outbox() <-chan []byte { return c.send }
func (c *Client) Done() <-chan struct{} { return c.done }

// close must only be called with the hub lock held so it never races a send.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		close(c.send)
	})
}

type Hub struct {
	mu         sync.Mutex
	clients    map[string]*Client
	closed     bool
	outboxSize int
	log        *zap.Logger
}

func New(outboxSize int, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if outboxSize <= 0 {
		outboxSize = 16
	}
	return &Hub{
		clients:    make(map[string]*Client),
		outboxSize: outboxSize,
		log:        log.Named("hub"),
	}
}

// Add registers a client. On a closed hub the client comes back already
// closed and is not registered, so its writer hangs up straight away.
func (h *Hub) Add(id string) *Client {
	c := &Client{ID: id, send: make(chan []byte, h.outboxSize), done: make(chan struct{})}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.close()
		return c
	}
	if old, ok := h.clients[id]; ok {
		old.close()
	}
	h.clients[id] = c
	return c
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		c.close()
		delete(h.clients, id)
	}
}

// Send queues msg for one client. A client whose outbox is full is dropped.
func (h *Hub) Send(id string, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return ErrUnknownClient
	}
	if !h.enqueueLocked(c, payload) {
		return ErrClientSlow
	}
	return nil
}

// Broadcast queues msg for every client and returns how many received it.
func (h *Hub) Broadcast(msg types.ServerMessage) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode broadcast", zap.String("type", msg.Type), zap.Error(err))
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, c := range h.clients {
		if h.enqueueLocked(c, payload) {
			n++
		}
	}
	return n
}

func (h *Hub) enqueueLocked(c *Client, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		// Client is slow/full - drop them.
		h.log.Warn("dropping slow client", zap.String("conn", c.ID))
		c.close()
		delete(h.clients, c.ID)
		return false
	}
}

// Open lets a hub closed by CloseAll take clients again.
func (h *Hub) Open() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = false
}

// CloseAll closes every outbox, which makes each writer hang up its socket,
// and refuses new clients until Open.
func (h *Hub) CloseAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	n := len(h.clients)
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
	return n
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
