package websocket

import (
	"encoding/json"
	"sync"

	"collabnote-be/internal/pkg/logger"
)

// RoomDirectory resolves which connections are currently inside a notebook
// room. Implemented by the presence tracker.
type RoomDirectory interface {
	Members(notebookId string) []string
}

// Hub is the broadcast router: it owns the connection registry and fans
// events out to rooms, single connections, or everyone. Delivery is
// best-effort and fire-and-forget; a client whose send buffer is full is
// dropped.
type Hub struct {
	// Registered clients map: connection id -> client
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	rooms RoomDirectory

	logger logger.ILogger
}

func NewHub(rooms RoomDirectory, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		rooms:      rooms,
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Id] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"conn_id": client.Id})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.Id]; ok {
				delete(h.clients, client.Id)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"conn_id": client.Id})
			}
			h.mu.Unlock()
		}
	}
}

// ToAll delivers an event to every connected session.
func (h *Hub) ToAll(event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	h.mu.RLock()
	for _, client := range h.clients {
		h.trySend(client, frame)
	}
	h.mu.RUnlock()
}

// ToRoom delivers an event to every connection joined to the notebook.
func (h *Hub) ToRoom(notebookId string, event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	members := h.rooms.Members(notebookId)

	h.mu.RLock()
	for _, connId := range members {
		if client, ok := h.clients[connId]; ok {
			h.trySend(client, frame)
		}
	}
	h.mu.RUnlock()
}

// ToConn delivers an event to a single connection.
func (h *Hub) ToConn(connId string, event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connId]
	h.mu.RUnlock()
	if ok {
		h.trySend(client, frame)
	}
}

func (h *Hub) trySend(client *Client, frame []byte) {
	select {
	case client.Send <- frame:
	default:
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"conn_id": client.Id})
		go func() { h.unregister <- client }()
	}
}

func encodeFrame(event string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
}
