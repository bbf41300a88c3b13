package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/debug"
	"github.com/UltraUmarGamerz1/find-the-thief/internal/store"
)

// Validation limits for feedback endpoints.
const (
	FeedbackTextMaxLen = 4000
	// ScreenshotMaxLen bounds the base64 screenshot payload (~1.5MB decoded).
	ScreenshotMaxLen = 2 << 20
)

// FeedbackHandler handles suggestion and bug-report requests. It also owns
// the admin unlock: a bug report whose text is the unlock sentinel flips
// admin mode instead of being stored.
type FeedbackHandler struct {
	feedback *store.FeedbackStore
	admin    *debug.Mode
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedback *store.FeedbackStore, admin *debug.Mode) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, admin: admin}
}

// FeedbackRequest is the body for feedback submissions. Screenshot is
// accepted on bug reports only.
type FeedbackRequest struct {
	Text       string  `json:"text"`
	Screenshot *string `json:"screenshot,omitempty"`
}

// FeedbackResponse wraps a stored entry. Unlocked is set when the submission
// activated admin mode instead of being stored.
type FeedbackResponse struct {
	Entry    *store.FeedbackEntry `json:"entry,omitempty"`
	Unlocked bool                 `json:"unlocked,omitempty"`
}

func (h *FeedbackHandler) decodeFeedback(w http.ResponseWriter, r *http.Request) (*FeedbackRequest, bool) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return nil, false
	}
	if len(req.Text) > FeedbackTextMaxLen {
		http.Error(w, "text is too long", http.StatusBadRequest)
		return nil, false
	}
	if req.Screenshot != nil && len(*req.Screenshot) > ScreenshotMaxLen {
		http.Error(w, "screenshot is too large", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// CreateSuggestion handles POST /api/feedback/suggestions
//
// @Summary      Submit suggestion
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body  body      FeedbackRequest  true  "Request body"
// @Success      201   {object}  FeedbackResponse
// @Failure      400   {string}  string  "Bad request"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/feedback/suggestions [post]
func (h *FeedbackHandler) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFeedback(w, r)
	if !ok {
		return
	}
	entry, err := h.feedback.AddSuggestion(r.Context(), req.Text)
	if err != nil {
		log.Printf("[%s] add suggestion error: %v", requestID(r), err)
		http.Error(w, "failed to store suggestion", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusCreated, FeedbackResponse{Entry: entry})
}

// CreateBugReport handles POST /api/feedback/bug-reports
//
// @Summary      Submit bug report
// @Description  Stores a bug report with an optional base64 screenshot. The admin unlock sentinel is intercepted here and never stored.
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body  body      FeedbackRequest  true  "Request body"
// @Success      201   {object}  FeedbackResponse
// @Failure      400   {string}  string  "Bad request"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/feedback/bug-reports [post]
func (h *FeedbackHandler) CreateBugReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFeedback(w, r)
	if !ok {
		return
	}
	if h.admin != nil && h.admin.TryUnlock(req.Text) {
		log.Printf("[%s] admin mode unlocked", requestID(r))
		writeJSON(w, r, http.StatusCreated, FeedbackResponse{Unlocked: true})
		return
	}
	entry, err := h.feedback.AddBugReport(r.Context(), req.Text, req.Screenshot)
	if err != nil {
		log.Printf("[%s] add bug report error: %v", requestID(r), err)
		http.Error(w, "failed to store bug report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusCreated, FeedbackResponse{Entry: entry})
}

// ListSuggestions handles GET /api/feedback/suggestions
//
// @Summary      List suggestions
// @Tags         feedback
// @Produce      json
// @Success      200  {array}   store.FeedbackEntry
// @Failure      500  {string}  string  "Server error"
// @Router       /api/feedback/suggestions [get]
func (h *FeedbackHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedback.ListSuggestions(r.Context())
	if err != nil {
		log.Printf("[%s] list suggestions error: %v", requestID(r), err)
		http.Error(w, "failed to list suggestions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// ListBugReports handles GET /api/feedback/bug-reports
//
// @Summary      List bug reports
// @Tags         feedback
// @Produce      json
// @Success      200  {array}   store.FeedbackEntry
// @Failure      500  {string}  string  "Server error"
// @Router       /api/feedback/bug-reports [get]
func (h *FeedbackHandler) ListBugReports(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedback.ListBugReports(r.Context())
	if err != nil {
		log.Printf("[%s] list bug reports error: %v", requestID(r), err)
		http.Error(w, "failed to list bug reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// DeleteSuggestion handles DELETE /api/feedback/suggestions/{id}
//
// @Summary      Delete suggestion (admin)
// @Tags         feedback
// @Param        id  path  string  true  "Entry ID"
// @Success      204
// @Failure      403  {string}  string  "Admin mode not active"
// @Failure      404  {string}  string  "Entry not found"
// @Router       /api/feedback/suggestions/{id} [delete]
func (h *FeedbackHandler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, store.FeedbackSuggestion)
}

// DeleteBugReport handles DELETE /api/feedback/bug-reports/{id}
//
// @Summary      Delete bug report (admin)
// @Tags         feedback
// @Param        id  path  string  true  "Entry ID"
// @Success      204
// @Failure      403  {string}  string  "Admin mode not active"
// @Failure      404  {string}  string  "Entry not found"
// @Router       /api/feedback/bug-reports/{id} [delete]
func (h *FeedbackHandler) DeleteBugReport(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, store.FeedbackBugReport)
}

func (h *FeedbackHandler) deleteEntry(w http.ResponseWriter, r *http.Request, kind string) {
	if h.admin == nil || !h.admin.Enabled() {
		http.Error(w, "admin mode required", http.StatusForbidden)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.feedback.Delete(r.Context(), kind, id); err != nil {
		if errors.Is(err, store.ErrFeedbackNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("[%s] delete %s error: %v", requestID(r), kind, err)
		http.Error(w, "failed to delete entry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
