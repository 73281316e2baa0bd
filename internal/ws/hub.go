package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event is a dashboard feed message: ride created, roster changed,
// reminder fired.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans bot activity out to connected dashboard clients.
type Hub struct {
	log zerolog.Logger

	mu    sync.RWMutex
	conns map[*websocket.Conn]bool
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:   log,
		conns: make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	h.log.Debug().Int("total", len(h.conns)).Msg("ws client connected")
}

func (h *Hub) RemoveConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
		h.log.Debug().Int("total", len(h.conns)).Msg("ws client disconnected")
	}
}

func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.conns) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("ws marshal failed")
		return
	}

	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn().Err(err).Msg("ws write failed, dropping client")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}
