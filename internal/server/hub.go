package server

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	hubWriteTimeout = 5 * time.Second
	hubSendBuffer   = 16
)

var sceneUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// Event is a scene change notification pushed to connected clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Event types pushed over the websocket.
const (
	EventSceneLoaded = "scene_loaded"
	EventNodeMoved   = "node_moved"
)

// hubClient pairs a connection with its send queue. The queue has exactly
// one consumer, the writeLoop goroutine, so the connection only ever sees
// a single writer.
type hubClient struct {
	conn *websocket.Conn
	send chan Event
}

// Hub tracks connected websocket clients and broadcasts scene events.
type Hub struct {
	logger *log.Logger

	mu      sync.Mutex
	clients map[string]*hubClient
}

func newHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*hubClient),
	}
}

// Add registers a connection, starts its writer, and returns its session id.
func (h *Hub) Add(conn *websocket.Conn) string {
	id := uuid.NewString()
	client := &hubClient{conn: conn, send: make(chan Event, hubSendBuffer)}
	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()
	go h.writeLoop(id, client)
	h.logger.Debug("client connected", "session", id)
	return id
}

// Remove drops a connection. Safe to call for an already removed session.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(client.send)
	}
	h.mu.Unlock()
	if ok {
		_ = client.conn.Close()
		h.logger.Debug("client disconnected", "session", id)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues an event for every connected client. A client whose
// queue is full is dropped rather than blocking the caller.
func (h *Hub) Broadcast(ev Event) {
	var stalled []string
	h.mu.Lock()
	for id, client := range h.clients {
		select {
		case client.send <- ev:
		default:
			stalled = append(stalled, id)
		}
	}
	h.mu.Unlock()
	for _, id := range stalled {
		h.logger.Debug("dropping client", "session", id, "err", "send queue full")
		h.Remove(id)
	}
}

// writeLoop is the sole writer for one connection. It exits when Remove
// closes the send queue or when a write fails.
func (h *Hub) writeLoop(id string, client *hubClient) {
	for ev := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := client.conn.WriteJSON(ev); err != nil {
			h.logger.Debug("dropping client", "session", id, "err", err)
			h.Remove(id)
			return
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*hubClient)
	h.mu.Unlock()
	for _, client := range clients {
		close(client.send)
		_ = client.conn.Close()
	}
}
