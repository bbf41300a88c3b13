package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/game"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/store"
)

// defaultAINames are handed out to unnamed AI opponents in solo games.
var defaultAINames = []string{
	"Aarav", "Diya", "Kabir", "Isha", "Rohan", "Tara", "Vivaan", "Anaya", "Dev",
}

// GameHandler handles game HTTP requests: solo game creation, snapshots,
// actions, and the event log.
type GameHandler struct {
	games    *store.GameStore
	events   *store.GameEventStore
	engine   *game.Engine
	director *game.Director
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(games *store.GameStore, events *store.GameEventStore, engine *game.Engine, director *game.Director) *GameHandler {
	return &GameHandler{games: games, events: events, engine: engine, director: director}
}

// CreateGameRequest is the body for POST /api/games. The requester is the
// only human; the rest of the table is filled with AI opponents, named from
// AINames or the default pool.
type CreateGameRequest struct {
	DisplayName string                 `json:"display_name"`
	AICount     int                    `json:"ai_count,omitempty"`
	AINames     []string               `json:"ai_names,omitempty"`
	Config      map[string]interface{} `json:"config,omitempty"`
}

// CreateGameResponse is the body for a created solo game.
type CreateGameResponse struct {
	Game     *store.Game            `json:"game"`
	PlayerID string                 `json:"player_id"`
	State    map[string]interface{} `json:"state,omitempty"`
}

// ActionRequest is the body for POST /api/games/{game_id}/actions. Params
// beyond player_id and action ride in Payload (e.g. accused_id, tier).
type ActionRequest struct {
	PlayerID string                 `json:"player_id"`
	Action   string                 `json:"action"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// ActionResponse carries the move's outcome. Hint is only set for buy_hint
// and is for the requester's eyes.
type ActionResponse struct {
	State  map[string]interface{} `json:"state,omitempty"`
	Events []game.BroadcastEvent  `json:"events,omitempty"`
	Hint   *game.Hint             `json:"hint,omitempty"`
}

// CreateGame handles POST /api/games
//
// @Summary      Create solo game
// @Description  Create and start a game against AI opponents. Table size (requester included) must be between 4 and 10.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        body  body      CreateGameRequest  true  "Request body"
// @Success      201   {object}  CreateGameResponse
// @Failure      400   {string}  string  "Bad request (table size, blank or duplicate names)"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/games [post]
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validateDisplayName(req.DisplayName); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	aiNames := req.AINames
	if len(aiNames) == 0 {
		count := req.AICount
		if count <= 0 {
			count = game.MinPlayers - 1
		}
		if count > len(defaultAINames) {
			count = len(defaultAINames)
		}
		aiNames = defaultAINames[:count]
	}

	total := 1 + len(aiNames)
	if total < game.MinPlayers || total > game.MaxPlayers {
		http.Error(w, fmt.Sprintf("table size must be between %d and %d players", game.MinPlayers, game.MaxPlayers), http.StatusBadRequest)
		return
	}

	human := store.RosterPlayer{ID: uuid.New().String(), Name: strings.TrimSpace(req.DisplayName)}
	roster := []store.RosterPlayer{human}
	seen := map[string]bool{strings.ToLower(human.Name): true}
	for _, name := range aiNames {
		name = strings.TrimSpace(name)
		if name == "" {
			http.Error(w, "ai player names must not be blank", http.StatusBadRequest)
			return
		}
		if seen[strings.ToLower(name)] {
			http.Error(w, fmt.Sprintf("duplicate player name %q", name), http.StatusBadRequest)
			return
		}
		seen[strings.ToLower(name)] = true
		roster = append(roster, store.RosterPlayer{ID: uuid.New().String(), Name: name, IsAI: true})
	}

	g, err := h.games.CreateGame(r.Context(), roster, req.Config)
	if err != nil {
		log.Printf("[%s] create game error: %v", requestID(r), err)
		http.Error(w, "failed to create game", http.StatusInternalServerError)
		return
	}

	res := h.engine.Apply(r.Context(), g.ID, human.ID, game.ActionStartGame, nil)
	if res.Error != nil {
		log.Printf("[%s] start game error: game_id=%s: %v", requestID(r), g.ID, res.Error)
		http.Error(w, "failed to start game", http.StatusInternalServerError)
		return
	}
	if h.director != nil {
		h.director.OnStateChange(res.State)
	}

	resp := CreateGameResponse{Game: g, PlayerID: human.ID}
	if res.State != nil {
		resp.State = res.State.ToMap()
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

// GetGame handles GET /api/games/{game_id}
//
// @Summary      Get game snapshot
// @Tags         games
// @Produce      json
// @Param        game_id  path      string  true  "Game ID"
// @Success      200      {object}  CreateGameResponse
// @Failure      404      {string}  string  "Game not found"
// @Router       /api/games/{game_id} [get]
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	g, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		h.writeGameError(w, r, err, "get game")
		return
	}
	state, err := h.engine.GetState(r.Context(), gameID)
	if err != nil {
		log.Printf("[%s] get state error: game_id=%s: %v", requestID(r), gameID, err)
		http.Error(w, "failed to load state", http.StatusInternalServerError)
		return
	}
	resp := CreateGameResponse{Game: g}
	if state != nil {
		resp.State = state.ToMap()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ApplyAction handles POST /api/games/{game_id}/actions
//
// @Summary      Apply game action
// @Description  Apply a move (reveal_role, guess, buy_hint, next_round, reset_game) as the given player.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        game_id  path      string         true  "Game ID"
// @Param        body     body      ActionRequest  true  "Request body"
// @Success      200      {object}  ActionResponse
// @Failure      400      {string}  string  "Bad request or rejected move"
// @Failure      404      {string}  string  "Game not found"
// @Failure      500      {string}  string  "Server error"
// @Router       /api/games/{game_id}/actions [post]
func (h *GameHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" || req.Action == "" {
		http.Error(w, "player_id and action are required", http.StatusBadRequest)
		return
	}

	res := h.engine.Apply(r.Context(), gameID, req.PlayerID, req.Action, req.Payload)
	if res.Error != nil {
		h.writeGameError(w, r, res.Error, "apply action")
		return
	}
	if h.director != nil {
		h.director.OnStateChange(res.State)
	}

	resp := ActionResponse{Events: res.Events, Hint: res.Hint}
	if res.State != nil {
		resp.State = res.State.ToMap()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ListEvents handles GET /api/games/{game_id}/events
//
// @Summary      List game events
// @Tags         games
// @Produce      json
// @Param        game_id  path      string  true  "Game ID"
// @Success      200      {array}   store.GameEvent
// @Failure      404      {string}  string  "Game not found"
// @Router       /api/games/{game_id}/events [get]
func (h *GameHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if _, err := h.games.GetGame(r.Context(), gameID); err != nil {
		h.writeGameError(w, r, err, "list events")
		return
	}
	events, err := h.events.GetGameEvents(r.Context(), gameID)
	if err != nil {
		log.Printf("[%s] list events error: game_id=%s: %v", requestID(r), gameID, err)
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, events)
}

// writeGameError maps store and engine errors to HTTP statuses. Engine
// rejections are client errors; anything unrecognized is a 500.
func (h *GameHandler) writeGameError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var engineErr game.Error
	switch {
	case errors.Is(err, store.ErrGameNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &engineErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[%s] %s error: %v", requestID(r), op, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
