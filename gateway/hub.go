package gateway

import (
	"encoding/json"
	"sync"

	"github.com/jkobber/bubble-quiz/game"
	"github.com/rs/zerolog"
)

// Hub routes outbound events to connections by id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{clients: make(map[string]*client), log: log}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl.id] = cl
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Send(connID string, event game.Event) {
	h.mu.RLock()
	cl, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Type).Msg("could not encode event")
		return
	}
	if !cl.enqueue(data) {
		h.log.Warn().Str("conn", connID).Str("event", event.Type).Msg("send buffer full, dropping event")
	}
}
