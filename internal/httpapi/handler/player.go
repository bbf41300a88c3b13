package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/kv"
)

// PlayerHandler handles per-player settings, display name, and wallet
// requests. Players are identified by the opaque client id the app mints on
// first launch; there are no accounts.
type PlayerHandler struct {
	prefs  *kv.PrefsStore
	wallet *kv.WalletStore
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(prefs *kv.PrefsStore, wallet *kv.WalletStore) *PlayerHandler {
	return &PlayerHandler{prefs: prefs, wallet: wallet}
}

// WalletResponse is the body for GET /api/players/{player_id}/wallet.
type WalletResponse struct {
	Balance int `json:"balance"`
}

// DisplayNameRequest is the body for PUT /api/players/{player_id}/name.
type DisplayNameRequest struct {
	Name string `json:"name"`
}

// GetSettings handles GET /api/players/{player_id}/settings
//
// @Summary      Get settings
// @Description  Returns stored settings, or the defaults for an unknown player.
// @Tags         players
// @Produce      json
// @Param        player_id  path      string  true  "Player ID"
// @Success      200        {object}  kv.Settings
// @Failure      500        {string}  string  "Server error"
// @Router       /api/players/{player_id}/settings [get]
func (h *PlayerHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")
	settings, err := h.prefs.GetSettings(r.Context(), playerID)
	if err != nil {
		log.Printf("[%s] get settings error: player_id=%s: %v", requestID(r), playerID, err)
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, settings)
}

// PutSettings handles PUT /api/players/{player_id}/settings
//
// @Summary      Update settings
// @Tags         players
// @Accept       json
// @Produce      json
// @Param        player_id  path      string       true  "Player ID"
// @Param        body       body      kv.Settings  true  "Request body"
// @Success      200        {object}  kv.Settings
// @Failure      400        {string}  string  "Bad request"
// @Failure      500        {string}  string  "Server error"
// @Router       /api/players/{player_id}/settings [put]
func (h *PlayerHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")
	var settings kv.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.prefs.PutSettings(r.Context(), playerID, settings); err != nil {
		log.Printf("[%s] put settings error: player_id=%s: %v", requestID(r), playerID, err)
		http.Error(w, "failed to store settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, settings)
}

// GetDisplayName handles GET /api/players/{player_id}/name
//
// @Summary      Get display name
// @Tags         players
// @Produce      json
// @Param        player_id  path      string  true  "Player ID"
// @Success      200        {object}  DisplayNameRequest
// @Failure      500        {string}  string  "Server error"
// @Router       /api/players/{player_id}/name [get]
func (h *PlayerHandler) GetDisplayName(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")
	name, err := h.prefs.GetDisplayName(r.Context(), playerID)
	if err != nil {
		log.Printf("[%s] get display name error: player_id=%s: %v", requestID(r), playerID, err)
		http.Error(w, "failed to load display name", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, DisplayNameRequest{Name: name})
}

// PutDisplayName handles PUT /api/players/{player_id}/name
//
// @Summary      Update display name
// @Tags         players
// @Accept       json
// @Produce      json
// @Param        player_id  path      string              true  "Player ID"
// @Param        body       body      DisplayNameRequest  true  "Request body"
// @Success      200        {object}  DisplayNameRequest
// @Failure      400        {string}  string  "Bad request"
// @Failure      500        {string}  string  "Server error"
// @Router       /api/players/{player_id}/name [put]
func (h *PlayerHandler) PutDisplayName(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")
	var req DisplayNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validateDisplayName(req.Name); msg != "" {
		http.Error(w, strings.Replace(msg, "display_name", "name", 1), http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.prefs.PutDisplayName(r.Context(), playerID, req.Name); err != nil {
		log.Printf("[%s] put display name error: player_id=%s: %v", requestID(r), playerID, err)
		http.Error(w, "failed to store display name", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, req)
}

// GetWallet handles GET /api/players/{player_id}/wallet
//
// @Summary      Get coin balance
// @Description  Balance starts at zero and moves through gameplay only; under admin mode it reads as the pinned admin balance.
// @Tags         players
// @Produce      json
// @Param        player_id  path      string  true  "Player ID"
// @Success      200        {object}  WalletResponse
// @Failure      500        {string}  string  "Server error"
// @Router       /api/players/{player_id}/wallet [get]
func (h *PlayerHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")
	balance, err := h.wallet.Balance(r.Context(), playerID)
	if err != nil {
		log.Printf("[%s] get wallet error: player_id=%s: %v", requestID(r), playerID, err)
		http.Error(w, "failed to load wallet", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, WalletResponse{Balance: balance})
}
