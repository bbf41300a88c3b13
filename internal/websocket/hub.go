package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients grouped by session and fans
// envelopes out to them.
type Hub struct {
	// Registered clients by session_id -> client set
	sessions map[string]map[*Client]bool

	// Inbound envelopes to fan out
	broadcast chan *BroadcastMessage

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Event handler for processing client messages
	eventHandler *EventHandler

	mu sync.RWMutex
}

// BroadcastMessage carries an envelope destined for every client of a session.
type BroadcastMessage struct {
	SessionID     string
	Envelope      *ServerEnvelope
	ExcludeClient *Client // optional: skip this client
}

// NewHub creates a new Hub.
func NewHub(eventHandler *EventHandler) *Hub {
	return &Hub{
		sessions:     make(map[string]map[*Client]bool),
		broadcast:    make(chan *BroadcastMessage, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		eventHandler: eventHandler,
	}
}

// SetEventHandler sets the event handler for the hub.
func (h *Hub) SetEventHandler(handler *EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.eventHandler = handler
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.sessions[client.SessionID] == nil {
				h.sessions[client.SessionID] = make(map[*Client]bool)
			}
			h.sessions[client.SessionID][client] = true
			h.mu.Unlock()
			log.Printf("ws client registered session_id=%s player_id=%s total=%d", client.SessionID, client.PlayerID, h.SessionClientCount(client.SessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.sessions[client.SessionID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.sessions, client.SessionID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("ws client unregistered session_id=%s player_id=%s", client.SessionID, client.PlayerID)
			if h.eventHandler != nil {
				h.eventHandler.OnClientGone(client)
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients, exists := h.sessions[message.SessionID]
			if exists && message.Envelope != nil {
				for client := range clients {
					if message.ExcludeClient != nil && client == message.ExcludeClient {
						continue
					}
					select {
					case client.send <- message.Envelope:
					default:
						close(client.send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an envelope to every client of a session. Session snapshots
// go to everyone, the publisher included, so the last write is what every tab
// ends up rendering.
func (h *Hub) Broadcast(sessionID string, envelope *ServerEnvelope) {
	h.broadcast <- &BroadcastMessage{SessionID: sessionID, Envelope: envelope}
}

// BroadcastExcept sends an envelope to every client of a session except one.
func (h *Hub) BroadcastExcept(sessionID string, envelope *ServerEnvelope, excludeClient *Client) {
	h.broadcast <- &BroadcastMessage{
		SessionID:     sessionID,
		Envelope:      envelope,
		ExcludeClient: excludeClient,
	}
}

// SessionClientCount returns the number of clients attached to a session.
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
