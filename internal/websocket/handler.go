package websocket

import (
	"context"
	"log"
	"unicode/utf8"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/game"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/ratelimit"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/store"
)

// EventHandler processes client messages and fans the results back out
// through the hub.
type EventHandler struct {
	hub         *Hub
	sessions    *store.SessionStore
	games       *store.GameStore
	engine      *game.Engine
	director    *game.Director
	rateLimiter ratelimit.Limiter
}

// NewEventHandler creates a new EventHandler. hub may be nil while the hub is
// being built; call Hub.SetEventHandler afterwards. rateLimiter is optional;
// when set, chat messages are rate-limited by client key (e.g. IP).
func NewEventHandler(hub *Hub, sessions *store.SessionStore, games *store.GameStore, engine *game.Engine, director *game.Director, rateLimiter ratelimit.Limiter) *EventHandler {
	return &EventHandler{
		hub:         hub,
		sessions:    sessions,
		games:       games,
		engine:      engine,
		director:    director,
		rateLimiter: rateLimiter,
	}
}

// SetDirector wires the director after construction. The director's publish
// func points back at this handler, so one of the two has to be set late.
func (h *EventHandler) SetDirector(d *game.Director) {
	h.director = d
}

// HandleMessage dispatches an incoming client message by type.
// Unknown or oversized types are rejected with an error envelope.
func (h *EventHandler) HandleMessage(ctx context.Context, client *Client, msg *ClientInMessage) {
	if msg == nil {
		sendErrorToClient(client, "invalid message")
		return
	}
	if len(msg.Type) > MaxClientMessageTypeLength {
		sendErrorToClient(client, "invalid message type")
		return
	}
	if !ValidClientMessageTypes[msg.Type] {
		sendErrorToClient(client, "unsupported message type")
		return
	}
	switch msg.Type {
	case ClientMessageTypeChat:
		h.handleChat(client, msg)
	case ClientMessageTypeAction:
		h.handleAction(ctx, client, msg)
	case ClientMessageTypeSyncState:
		h.handleSyncState(ctx, client)
	case ClientMessageTypeSyncSession:
		h.handleSyncSession(ctx, client)
	}
}

// OnClientGone runs after a client has been unregistered. When the last tab
// of a session detaches, the director's pending timers for that session's
// game are cancelled so no AI move fires into an abandoned game.
func (h *EventHandler) OnClientGone(client *Client) {
	if h.director == nil || h.games == nil {
		return
	}
	if h.hub.SessionClientCount(client.SessionID) > 0 {
		return
	}
	g, err := h.games.GetLatestGameForSession(context.Background(), client.SessionID)
	if err != nil || g == nil {
		return
	}
	h.director.Teardown(g.ID)
}

// handleAction resolves the session's game and applies the requested action
// through the engine. The payload carries the action name plus its params,
// e.g. {"action": "guess", "accused_id": "..."}.
func (h *EventHandler) handleAction(ctx context.Context, client *Client, msg *ClientInMessage) {
	if h.games == nil || h.engine == nil {
		sendErrorToClient(client, "action not available")
		return
	}
	g, err := h.games.GetLatestGameForSession(ctx, client.SessionID)
	if err != nil || g == nil {
		sendErrorToClient(client, "no game found for session")
		return
	}
	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]interface{})
	}
	action, _ := payload["action"].(string)
	if action == "" {
		sendErrorToClient(client, "action is required")
		return
	}

	res := h.engine.Apply(ctx, g.ID, client.PlayerID, action, payload)
	if res.Error != nil {
		sendErrorToClient(client, res.Error.Error())
		return
	}

	// Hint text goes to the purchaser only; the broadcast event records the
	// purchase without revealing what was bought.
	if res.Hint != nil {
		sendEnvelopeToClient(client, &ServerEnvelope{
			Type: ServerTypeHint,
			Payload: map[string]interface{}{
				"tier": string(res.Hint.Tier),
				"cost": res.Hint.Cost,
				"text": res.Hint.Text,
			},
		})
	}

	h.BroadcastGameResult(client.SessionID, g.ID, res)
	if h.director != nil {
		h.director.OnStateChange(res.State)
	}
}

// handleSyncState loads the latest game snapshot for the client's session and
// sends a state envelope to that client only.
func (h *EventHandler) handleSyncState(ctx context.Context, client *Client) {
	if h.games == nil || h.engine == nil {
		sendErrorToClient(client, "sync_state not available")
		return
	}
	g, err := h.games.GetLatestGameForSession(ctx, client.SessionID)
	if err != nil || g == nil {
		sendErrorToClient(client, "no game found for session")
		return
	}
	state, err := h.engine.GetState(ctx, g.ID)
	if err != nil {
		sendErrorToClient(client, "failed to load state")
		return
	}
	payload := map[string]interface{}{"game_id": g.ID}
	if state != nil {
		payload["state"] = state.ToMap()
		payload["phase"] = state.Phase
		payload["version"] = state.Version
	} else {
		payload["state"] = map[string]interface{}{"phase": game.PhaseLobby}
	}
	sendEnvelopeToClient(client, &ServerEnvelope{Type: ServerTypeState, Event: ServerEventState, Payload: payload})
}

// handleSyncSession sends the current lobby snapshot to the requesting client.
func (h *EventHandler) handleSyncSession(ctx context.Context, client *Client) {
	if h.sessions == nil {
		sendErrorToClient(client, "sync_session not available")
		return
	}
	session, err := h.sessions.GetSession(ctx, client.SessionID)
	if err != nil {
		sendErrorToClient(client, "session not found")
		return
	}
	sendEnvelopeToClient(client, SessionEnvelope(session))
}

// handleChat broadcasts a chat message to the session, sender excluded.
func (h *EventHandler) handleChat(client *Client, msg *ClientInMessage) {
	if h.rateLimiter != nil && client.RateLimitKey != "" {
		allowed, _ := h.rateLimiter.Allow(client.RateLimitKey)
		if !allowed {
			sendErrorToClient(client, "rate limit exceeded; try again later")
			return
		}
	}
	var message string
	if msg.Payload != nil {
		if m, ok := msg.Payload["message"].(string); ok {
			message = m
		}
	}
	message = trimToMax(message, MaxChatMessageLength)
	if message == "" {
		return
	}
	envelope := &ServerEnvelope{
		Type:  ServerTypeEvent,
		Event: ServerEventChat,
		Payload: map[string]interface{}{
			"player_id":    client.PlayerID,
			"display_name": client.DisplayName,
			"message":      message,
		},
	}
	h.hub.BroadcastExcept(client.SessionID, envelope, client)
}

// PublishGameResult delivers a director-driven move to the game's session.
// Wired as the director's publish func.
func (h *EventHandler) PublishGameResult(gameID string, res game.ApplyResult) {
	if h.games == nil {
		return
	}
	g, err := h.games.GetGame(context.Background(), gameID)
	if err != nil || g == nil || g.SessionID == nil {
		return
	}
	h.BroadcastGameResult(*g.SessionID, gameID, res)
}

// BroadcastGameResult sends a move's events followed by the full new state.
// The HTTP session handler reuses it after starting a game.
func (h *EventHandler) BroadcastGameResult(sessionID, gameID string, res game.ApplyResult) {
	if h.hub == nil {
		return
	}
	for _, ev := range res.Events {
		h.hub.Broadcast(sessionID, &ServerEnvelope{Type: ServerTypeEvent, Event: ev.Event, Payload: ev.Payload})
	}
	if res.State != nil {
		h.hub.Broadcast(sessionID, &ServerEnvelope{
			Type:  ServerTypeState,
			Event: ServerEventState,
			Payload: map[string]interface{}{
				"game_id": gameID,
				"state":   res.State.ToMap(),
				"phase":   res.State.Phase,
				"version": res.State.Version,
			},
		})
	}
}

// SessionEnvelope wraps a full lobby snapshot. Snapshots are broadcast to
// every connected tab, the writer's own included; whichever write lands last
// is what everyone renders.
func SessionEnvelope(session *store.Session) *ServerEnvelope {
	players := make([]map[string]interface{}, 0, len(session.Players))
	for _, p := range session.Players {
		players = append(players, map[string]interface{}{"id": p.ID, "name": p.Name})
	}
	return &ServerEnvelope{
		Type:  ServerTypeSession,
		Event: ServerEventSessionUpdated,
		Payload: map[string]interface{}{
			"id":           session.ID,
			"host_id":      session.HostID,
			"status":       session.Status,
			"players":      players,
			"version":      session.Version,
			"has_password": session.HasPassword,
		},
	}
}

func sendErrorToClient(client *Client, message string) {
	sendEnvelopeToClient(client, &ServerEnvelope{Type: ServerTypeError, Payload: map[string]interface{}{"message": message}})
}

func sendEnvelopeToClient(client *Client, envelope *ServerEnvelope) {
	select {
	case client.send <- envelope:
	default:
		log.Printf("could not send envelope to client (channel full)")
	}
}

// trimToMax caps s at max bytes without splitting a UTF-8 rune.
func trimToMax(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
