package socket

import "sync"

// Hub tracks the open clients of every user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.User] == nil {
		h.clients[c.User] = make(map[string]*Client)
	}
	h.clients[c.User][c.ID] = c
}

func (h *Hub) Deregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients[c.User], c.ID)
	if len(h.clients[c.User]) == 0 {
		delete(h.clients, c.User)
	}
}

// Publish sends m to every client of user and returns how many accepted it.
func (h *Hub) Publish(user string, m Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var n int
	for _, c := range h.clients[user] {
		if c.Emit(m) {
			n++
		}
	}

	return n
}
