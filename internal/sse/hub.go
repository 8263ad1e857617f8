package sse

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Client roles.
const (
	RoleOperator  = "operator"
	RoleProjector = "projector"
)

// Client represents a connected SSE browser client.
type Client struct {
	ID       string
	Role     string
	WindowID string      // projector window this page belongs to, if any
	Events   chan []byte // outbound event data
}

// NewClient creates a client with a fresh id and a buffered event channel.
func NewClient(role, windowID string) *Client {
	if role != RoleProjector {
		role = RoleOperator
	}
	return &Client{
		ID:       uuid.NewString(),
		Role:     role,
		WindowID: windowID,
		Events:   make(chan []byte, 32),
	}
}

// Format renders a named SSE event. Each line of data gets its own data
// field; the browser joins them back with newlines.
func Format(event string, data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	buf := fmt.Appendf(nil, "event: %s\n", event)
	for _, line := range bytes.Split(data, []byte("\n")) {
		buf = append(buf, "data: "...)
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return append(buf, '\n')
}

// Hub manages SSE client connections and broadcasts events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	done       chan struct{}
	closeOnce  sync.Once

	hookMu     sync.RWMutex
	onRegister []func(*Client)
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnRegister adds fn to the functions run, on the hub goroutine, after a
// client joins. fn may call Send for that client but must not block.
func (h *Hub) OnRegister(fn func(*Client)) {
	h.hookMu.Lock()
	h.onRegister = append(h.onRegister, fn)
	h.hookMu.Unlock()
}

// Run starts the hub's event loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("sse client connected", "id", client.ID, "role", client.Role, "total", h.Count())

			h.hookMu.RLock()
			hooks := h.onRegister
			h.hookMu.RUnlock()
			for _, fn := range hooks {
				fn(client)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Events)
			}
			h.mu.Unlock()
			slog.Info("sse client disconnected", "id", client.ID, "role", client.Role, "total", h.Count())

		case data := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				h.deliver(client, data)
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Events)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// deliver queues data for one client. Callers hold h.mu.
func (h *Hub) deliver(c *Client, data []byte) bool {
	select {
	case c.Events <- data:
		return true
	default:
		// Buffer full: drop rather than block the hub.
		slog.Warn("sse client buffer full, dropping message", "id", c.ID)
		return false
	}
}

// Register adds a client to the hub.
// Uses a select so that sends after Close() don't block forever.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
// Uses a select so that sends after Close() don't block forever.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends a named SSE event to all connected clients.
// Uses a select so that sends after Close() don't block forever.
func (h *Hub) Broadcast(event string, data []byte) {
	msg := Format(event, data)
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Send delivers a named event to one connected client. It reports false
// when the client is gone or its buffer is full.
func (h *Hub) Send(c *Client, event string, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return false
	}
	return h.deliver(c, Format(event, data))
}

// SendToWindow delivers a named event to every page of one projector
// window and reports how many received it.
func (h *Hub) SendToWindow(windowID, event string, data []byte) int {
	msg := Format(event, data)
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.WindowID == windowID && h.deliver(c, msg) {
			n++
		}
	}
	return n
}

// WindowConnected reports whether a page of the given window holds a
// connection.
func (h *Hub) WindowConnected(windowID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.WindowID == windowID {
			return true
		}
	}
	return false
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close shuts down the hub. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
