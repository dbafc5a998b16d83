package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartattendai/smart-attendance/internal/attendance"
	"github.com/smartattendai/smart-attendance/internal/database"
)

// AttendanceHandler handles attendance record endpoints.
type AttendanceHandler struct {
	records  database.AttendanceReader
	ledger   attendance.Ledger
	sessions database.SessionReader
	students database.StudentReader
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(records database.AttendanceReader, ledger attendance.Ledger,
	sessions database.SessionReader, students database.StudentReader) *AttendanceHandler {
	return &AttendanceHandler{
		records:  records,
		ledger:   ledger,
		sessions: sessions,
		students: students,
	}
}

// BySession handles GET /sessions/{id}/attendance.
func (h *AttendanceHandler) BySession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	entries, err := h.records.BySession(r.Context(), id)
	if err != nil {
		log.Printf("Failed to list attendance for session %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	if entries == nil {
		entries = []database.AttendanceEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// CheckinRequest is the body for POST /attendance/checkin. Manual check-ins
// cover students the camera cannot recognize.
type CheckinRequest struct {
	StudentCode string `json:"student_code"`
	SessionID   int64  `json:"session_id"`
}

// Checkin handles POST /attendance/checkin.
func (h *AttendanceHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	var req CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.StudentCode == "" || req.SessionID == 0 {
		respondError(w, http.StatusBadRequest, "student_code and session_id are required")
		return
	}

	student, err := h.students.Get(r.Context(), req.StudentCode)
	if err != nil {
		log.Printf("Failed to get student %s: %v", sanitizeForLog(req.StudentCode), err)
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}

	session, err := h.sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		log.Printf("Failed to get session %d: %v", req.SessionID, err)
		respondError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if session == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	status, err := h.ledger.Record(r.Context(), req.StudentCode, session.ID, session.StartTime)
	if errors.Is(err, attendance.ErrDuplicate) {
		respondError(w, http.StatusConflict, "attendance already recorded")
		return
	}
	if err != nil {
		log.Printf("Failed to record attendance for %s: %v", sanitizeForLog(req.StudentCode), err)
		respondError(w, http.StatusInternalServerError, "failed to record attendance")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"student_code": req.StudentCode,
		"session_id":   session.ID,
		"status":       status,
	})
}
