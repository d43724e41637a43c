// Package websocket streams pipeline progress events to connected clients.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"idxlens/internal/pipeline"
)

// Message type constants
const (
	TypeConnection = "connection"
	TypeProgress   = "pipeline:progress"
	TypeRunStatus  = "pipeline:status"
)

// Envelope is the wire format for every hub message
type Envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}

	logger *slog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start launches the hub loop. Safe to call more than once.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop shuts the hub loop down and disconnects all clients
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shut down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client registered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

			if msg, err := marshal(TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			}); err == nil {
				select {
				case client.send <- msg:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: drop the message rather than block the hub.
					h.logger.Warn("Dropped message for slow client",
						slog.String("client_id", client.id))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a raw message to every connected client
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast buffer full, dropping message")
	}
}

// Publish implements pipeline.Listener: every pipeline event goes out to
// all clients as JSON.
func (h *Hub) Publish(event pipeline.Event) {
	msgType := TypeProgress
	if event.StageID == "" {
		msgType = TypeRunStatus
	}

	msg, err := marshal(msgType, event)
	if err != nil {
		h.logger.Error("Failed to marshal pipeline event", slog.String("error", err.Error()))
		return
	}
	h.Broadcast(msg)
}

func marshal(msgType string, data any) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
