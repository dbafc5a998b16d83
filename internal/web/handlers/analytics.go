package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartattendai/smart-attendance/internal/database"
)

const (
	defaultDistributionDays = 30
	defaultAtRiskPercent    = 70.0
)

// AnalyticsHandler handles reporting endpoints.
type AnalyticsHandler struct {
	analytics database.AnalyticsReader
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics database.AnalyticsReader) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard handles GET /analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Dashboard(r.Context())
	if err != nil {
		log.Printf("Failed to load dashboard stats: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load dashboard stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Distribution handles GET /analytics/distribution?days=N.
func (h *AnalyticsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	days := defaultDistributionDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	counts, err := h.analytics.StatusDistribution(r.Context(), days)
	if err != nil {
		log.Printf("Failed to load status distribution: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load status distribution")
		return
	}
	if counts == nil {
		counts = []database.StatusCount{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"days":   days,
		"counts": counts,
	})
}

// AtRisk handles GET /analytics/at-risk?below=N.
func (h *AnalyticsHandler) AtRisk(w http.ResponseWriter, r *http.Request) {
	below := defaultAtRiskPercent
	if raw := r.URL.Query().Get("below"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "below must be a percentage")
			return
		}
		below = parsed
	}

	students, err := h.analytics.AtRisk(r.Context(), below)
	if err != nil {
		log.Printf("Failed to load at-risk students: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load at-risk students")
		return
	}
	if students == nil {
		students = []database.StudentRatio{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"below":    below,
		"students": students,
	})
}

// StudentRatios handles GET /students/{code}/attendance.
func (h *AnalyticsHandler) StudentRatios(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ratios, err := h.analytics.StudentRatios(r.Context(), code)
	if err != nil {
		log.Printf("Failed to load ratios for %s: %v", sanitizeForLog(code), err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance ratios")
		return
	}
	if ratios == nil {
		ratios = []database.StudentRatio{}
	}
	respondJSON(w, http.StatusOK, ratios)
}
