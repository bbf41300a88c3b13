package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/auth"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/game"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/store"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/websocket"
)

// Validation limits for session endpoints.
const (
	DisplayNameMinLen = 1
	DisplayNameMaxLen = 64
	PasswordMaxLen    = 128
)

// SessionHandler handles lobby session HTTP requests.
type SessionHandler struct {
	sessions    *store.SessionStore
	engine      *game.Engine
	director    *game.Director
	events      *websocket.EventHandler
	hub         *websocket.Hub
	tokenSecret []byte
	publicURL   string
}

// NewSessionHandler creates a new SessionHandler. If tokenSecret is non-empty,
// create/join responses include a WebSocket auth token. publicURL is the
// externally reachable base URL encoded into join QR codes.
func NewSessionHandler(sessions *store.SessionStore, engine *game.Engine, director *game.Director, events *websocket.EventHandler, hub *websocket.Hub, tokenSecret []byte, publicURL string) *SessionHandler {
	return &SessionHandler{
		sessions:    sessions,
		engine:      engine,
		director:    director,
		events:      events,
		hub:         hub,
		tokenSecret: tokenSecret,
		publicURL:   strings.TrimRight(publicURL, "/"),
	}
}

// CreateSessionRequest is the body for POST /api/sessions.
type CreateSessionRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password,omitempty"`
}

// JoinSessionRequest is the body for POST /api/sessions/{session_id}/join.
// PlayerID is optional; resending a known id makes the join idempotent.
type JoinSessionRequest struct {
	DisplayName string `json:"display_name"`
	PlayerID    string `json:"player_id,omitempty"`
	Password    string `json:"password,omitempty"`
}

// LeaveSessionRequest is the body for POST /api/sessions/{session_id}/leave.
type LeaveSessionRequest struct {
	PlayerID string `json:"player_id"`
}

// StartSessionRequest is the body for POST /api/sessions/{session_id}/start.
type StartSessionRequest struct {
	PlayerID string                 `json:"player_id"`
	Config   map[string]interface{} `json:"config,omitempty"`
}

// SessionResponse is the common session payload, with token and player set
// on create/join.
type SessionResponse struct {
	Session   *store.Session       `json:"session,omitempty"`
	Player    *store.SessionPlayer `json:"player,omitempty"`
	Deleted   bool                 `json:"deleted,omitempty"`
	GameID    string               `json:"game_id,omitempty"`
	Token     string               `json:"token,omitempty"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

func validateDisplayName(displayName string) string {
	s := strings.TrimSpace(displayName)
	if len(s) < DisplayNameMinLen {
		return "display_name is required"
	}
	if len(s) > DisplayNameMaxLen {
		return fmt.Sprintf("display_name must be at most %d characters", DisplayNameMaxLen)
	}
	return ""
}

func validatePasswordLength(password string) string {
	if len(password) > PasswordMaxLen {
		return fmt.Sprintf("password must be at most %d characters", PasswordMaxLen)
	}
	return ""
}

// CreateSession handles POST /api/sessions
//
// @Summary      Create session
// @Description  Create a new lobby session. The requester becomes the host.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body      CreateSessionRequest  true  "Request body"
// @Success      201   {object}  SessionResponse
// @Failure      400   {string}  string  "Bad request"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/sessions [post]
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validateDisplayName(req.DisplayName); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if msg := validatePasswordLength(req.Password); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	session, player, err := h.sessions.CreateSession(r.Context(), strings.TrimSpace(req.DisplayName), req.Password)
	if err != nil {
		log.Printf("[%s] create session error: %v", requestID(r), err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	resp := SessionResponse{Session: session, Player: player}
	if !h.attachToken(w, r, &resp, session.ID, player.ID) {
		return
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

// GetSession handles GET /api/sessions/{session_id}
//
// @Summary      Get session
// @Tags         sessions
// @Produce      json
// @Param        session_id  path      string  true  "Session ID"
// @Success      200         {object}  SessionResponse
// @Failure      404         {string}  string  "Session not found"
// @Router       /api/sessions/{session_id} [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		h.writeSessionError(w, r, err, "get session")
		return
	}
	writeJSON(w, r, http.StatusOK, SessionResponse{Session: session})
}

// JoinSession handles POST /api/sessions/{session_id}/join
//
// @Summary      Join session
// @Description  Join a waiting session. Rejoining with the same player_id is idempotent.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        session_id  path      string              true  "Session ID"
// @Param        body        body      JoinSessionRequest  true  "Request body"
// @Success      200         {object}  SessionResponse
// @Failure      400         {string}  string  "Bad request"
// @Failure      401         {string}  string  "Password required or invalid"
// @Failure      404         {string}  string  "Session not found"
// @Failure      409         {string}  string  "Session full or already started"
// @Failure      500         {string}  string  "Server error"
// @Router       /api/sessions/{session_id}/join [post]
func (h *SessionHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validateDisplayName(req.DisplayName); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	session, player, err := h.sessions.JoinSession(r.Context(), sessionID, req.PlayerID, strings.TrimSpace(req.DisplayName), req.Password)
	if err != nil {
		h.writeSessionError(w, r, err, "join session")
		return
	}
	h.publishSession(session)

	resp := SessionResponse{Session: session, Player: player}
	if !h.attachToken(w, r, &resp, session.ID, player.ID) {
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// LeaveSession handles POST /api/sessions/{session_id}/leave
//
// @Summary      Leave session
// @Description  Remove a player. A departing host hands the lobby to the first remaining player; an emptied session is deleted.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        session_id  path      string               true  "Session ID"
// @Param        body        body      LeaveSessionRequest  true  "Request body"
// @Success      200         {object}  SessionResponse
// @Failure      404         {string}  string  "Session or player not found"
// @Failure      500         {string}  string  "Server error"
// @Router       /api/sessions/{session_id}/leave [post]
func (h *SessionHandler) LeaveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req LeaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	session, err := h.sessions.LeaveSession(r.Context(), sessionID, req.PlayerID)
	if err != nil {
		h.writeSessionError(w, r, err, "leave session")
		return
	}
	if session == nil {
		writeJSON(w, r, http.StatusOK, SessionResponse{Deleted: true})
		return
	}
	h.publishSession(session)
	writeJSON(w, r, http.StatusOK, SessionResponse{Session: session})
}

// StartSession handles POST /api/sessions/{session_id}/start
//
// @Summary      Start game
// @Description  Host only. Freezes the roster, deals roles, and moves every connected tab into the game.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        session_id  path      string               true  "Session ID"
// @Param        body        body      StartSessionRequest  true  "Request body"
// @Success      200         {object}  SessionResponse
// @Failure      403         {string}  string  "Not the host"
// @Failure      404         {string}  string  "Session not found"
// @Failure      409         {string}  string  "Already started or too few players"
// @Failure      500         {string}  string  "Server error"
// @Router       /api/sessions/{session_id}/start [post]
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	session, g, err := h.sessions.StartSession(r.Context(), sessionID, req.PlayerID, req.Config)
	if err != nil {
		h.writeSessionError(w, r, err, "start session")
		return
	}

	res := h.engine.Apply(r.Context(), g.ID, req.PlayerID, game.ActionStartGame, nil)
	if res.Error != nil {
		log.Printf("[%s] start game error: session_id=%s game_id=%s: %v", requestID(r), sessionID, g.ID, res.Error)
		http.Error(w, "failed to start game", http.StatusInternalServerError)
		return
	}

	h.publishSession(session)
	if h.events != nil {
		h.events.BroadcastGameResult(session.ID, g.ID, res)
	}
	if h.director != nil {
		h.director.OnStateChange(res.State)
	}

	writeJSON(w, r, http.StatusOK, SessionResponse{Session: session, GameID: g.ID})
}

// JoinQR handles GET /api/sessions/{session_id}/qr
//
// @Summary      Join QR code
// @Description  PNG QR code encoding the join URL for this session.
// @Tags         sessions
// @Produce      png
// @Param        session_id  path      string  true   "Session ID"
// @Param        size        query     int     false  "Image size in pixels (64-1024, default 256)"
// @Success      200         {file}    file
// @Failure      404         {string}  string  "Session not found"
// @Router       /api/sessions/{session_id}/qr [get]
func (h *SessionHandler) JoinQR(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		h.writeSessionError(w, r, err, "session qr")
		return
	}

	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	joinURL := fmt.Sprintf("%s/join/%s", h.publicURL, sessionID)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
	if err != nil {
		log.Printf("[%s] encode qr error: %v", requestID(r), err)
		http.Error(w, "failed to generate qr code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// publishSession pushes the full lobby snapshot to every connected tab,
// the writer included.
func (h *SessionHandler) publishSession(session *store.Session) {
	if h.hub == nil || session == nil {
		return
	}
	h.hub.Broadcast(session.ID, websocket.SessionEnvelope(session))
}

// attachToken signs a WebSocket auth token into resp. Reports false after
// writing an error response.
func (h *SessionHandler) attachToken(w http.ResponseWriter, r *http.Request, resp *SessionResponse, sessionID, playerID string) bool {
	if len(h.tokenSecret) == 0 {
		return true
	}
	token, expiresAt, err := auth.GenerateToken(sessionID, playerID, h.tokenSecret, auth.DefaultTokenExpiry)
	if err != nil {
		log.Printf("[%s] generate token error: %v", requestID(r), err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return false
	}
	resp.Token = token
	resp.ExpiresAt = &expiresAt
	return true
}

// writeSessionError maps store errors to HTTP statuses.
func (h *SessionHandler) writeSessionError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, store.ErrNotInSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrBadPassword):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, store.ErrNotHost):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, store.ErrSessionFull), errors.Is(err, store.ErrSessionStarted), errors.Is(err, store.ErrTooFewPlayers):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[%s] %s error: %v", requestID(r), op, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
