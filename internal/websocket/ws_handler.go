package websocket

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/auth"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/store"
)

// rateLimitKeyFromRequest returns a key for rate limiting (e.g. client IP).
func rateLimitKeyFromRequest(r *http.Request) string {
	if x := r.Header.Get("X-Real-IP"); x != "" {
		return x
	}
	if x := r.Header.Get("X-Forwarded-For"); x != "" {
		return x
	}
	return r.RemoteAddr
}

// WSHandler upgrades authenticated session WebSocket connections.
type WSHandler struct {
	hub         *Hub
	sessions    *store.SessionStore
	tokenSecret []byte
}

// NewWSHandler creates a new WSHandler. tokenSecret signs the tokens handed
// out on join; if empty, every connection is rejected.
func NewWSHandler(hub *Hub, sessions *store.SessionStore, tokenSecret []byte) *WSHandler {
	return &WSHandler{
		hub:         hub,
		sessions:    sessions,
		tokenSecret: tokenSecret,
	}
}

// HandleSessionWebSocket handles GET /ws/sessions/{session_id} with token
// auth. The client sends its token via query param or Authorization header.
func (h *WSHandler) HandleSessionWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		const prefix = "Bearer "
		if v := r.Header.Get("Authorization"); strings.HasPrefix(v, prefix) {
			token = strings.TrimSpace(v[len(prefix):])
		}
	}
	if token == "" || len(h.tokenSecret) == 0 {
		h.reject(w, "missing or invalid token")
		return
	}
	claims, err := auth.VerifyToken(token, h.tokenSecret)
	if err != nil {
		log.Printf("websocket auth: session_id=%s token verification failed: %v", sessionID, err)
		h.reject(w, "unauthorized")
		return
	}
	if claims.SessionID != sessionID {
		h.reject(w, "session does not match token")
		return
	}

	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		log.Printf("websocket: session_id=%s not found: %v", sessionID, err)
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	var player *store.SessionPlayer
	for i := range session.Players {
		if session.Players[i].ID == claims.PlayerID {
			player = &session.Players[i]
			break
		}
	}
	if player == nil {
		h.reject(w, "player not in session")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	// Background context: the client outlives the upgrade request, whose
	// context is canceled as soon as this handler returns.
	client := &Client{
		hub:          h.hub,
		conn:         conn,
		send:         make(chan *ServerEnvelope, 256),
		SessionID:    sessionID,
		PlayerID:     player.ID,
		DisplayName:  player.Name,
		RateLimitKey: rateLimitKeyFromRequest(r),
		ctx:          context.Background(),
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// reject responds with 401 before upgrade (auth is always checked before upgrading).
func (h *WSHandler) reject(w http.ResponseWriter, reason string) {
	http.Error(w, reason, http.StatusUnauthorized)
}
