package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartattendai/smart-attendance/internal/attendance"
	"github.com/smartattendai/smart-attendance/internal/database"
)

// SessionsHandler handles schedule endpoints.
type SessionsHandler struct {
	sessions database.SessionReader
	source   attendance.SessionSource
}

// NewSessionsHandler creates a new sessions handler. source serves the active
// session endpoint and may be nil when no live controller is running.
func NewSessionsHandler(sessions database.SessionReader, source attendance.SessionSource) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, source: source}
}

// List handles GET /sessions. Defaults to today; ?date=YYYY-MM-DD selects
// another day.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	sessions, err := h.sessions.ByDate(r.Context(), day)
	if err != nil {
		log.Printf("Failed to list sessions: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []database.SessionDetail{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

// Get handles GET /sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get session %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if session == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// Active handles GET /sessions/active.
func (h *SessionsHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	session := h.source.Active(r.Context())
	if session == nil {
		respondJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"active":  true,
		"session": session,
	})
}
