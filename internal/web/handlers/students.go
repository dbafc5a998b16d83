package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartattendai/smart-attendance/internal/database"
)

// StudentsHandler handles roster endpoints.
type StudentsHandler struct {
	students database.StudentWriter
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(students database.StudentWriter) *StudentsHandler {
	return &StudentsHandler{students: students}
}

// List handles GET /students. An optional ?q= filters by name, ignoring case
// and diacritics.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		students []database.Student
		err      error
	)
	if query != "" {
		students, err = h.students.Search(r.Context(), query)
	} else {
		students, err = h.students.List(r.Context())
	}
	if err != nil {
		log.Printf("Failed to list students: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	if students == nil {
		students = []database.Student{}
	}
	respondJSON(w, http.StatusOK, students)
}

// Get handles GET /students/{code}.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	student, err := h.students.Get(r.Context(), code)
	if err != nil {
		log.Printf("Failed to get student %s: %v", sanitizeForLog(code), err)
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// CreateStudentRequest is the body for POST /students.
type CreateStudentRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date,omitempty"` // YYYY-MM-DD
	Gender    string `json:"gender,omitempty"`
	Class     string `json:"class,omitempty"`
	Faculty   string `json:"faculty,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Create handles POST /students.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "code and name are required")
		return
	}

	student := database.Student{
		Code:    req.Code,
		Name:    req.Name,
		Gender:  req.Gender,
		Class:   req.Class,
		Faculty: req.Faculty,
		Email:   req.Email,
	}
	if req.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
			return
		}
		student.BirthDate = &birth
	}

	if err := h.students.Create(r.Context(), student); err != nil {
		if errors.Is(err, database.ErrStudentExists) {
			respondError(w, http.StatusConflict, "student code already exists")
			return
		}
		log.Printf("Failed to create student %s: %v", sanitizeForLog(req.Code), err)
		respondError(w, http.StatusInternalServerError, "failed to create student")
		return
	}

	created, err := h.students.Get(r.Context(), req.Code)
	if err != nil || created == nil {
		respondJSON(w, http.StatusCreated, student)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}
