package ws

import (
	"sync"

	"chat-sidebar/internal/models"
)

// Client receives chat events for its user. Deliver must not block.
type Client interface {
	Deliver(event models.ChatEvent)
}

// Hub maintains the live sidebar sessions of every user.
type Hub struct {
	rooms map[int]map[Client]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[Client]ConnInfo)}
}

// Add registers a session in its user's room.
func (h *Hub) Add(userID int, client Client, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[userID]; !ok {
		h.rooms[userID] = make(map[Client]ConnInfo)
	}
	h.rooms[userID][client] = info
}

// Remove unregisters a session.
func (h *Hub) Remove(userID int, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, userID)
		}
	}
}

// Count returns the number of sessions open for userID.
func (h *Hub) Count(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// BroadcastChatEvent delivers event to every session of userID.
func (h *Hub) BroadcastChatEvent(userID int, event models.ChatEvent) {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.rooms[userID]))
	for client := range h.rooms[userID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.Deliver(event)
	}
}
