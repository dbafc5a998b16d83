package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartattendai/smart-attendance/internal/database"
	"github.com/smartattendai/smart-attendance/internal/database/mock"
)

func TestAnalyticsHandler_Dashboard(t *testing.T) {
	analytics := mock.NewMockAnalytics()
	analytics.Stats = &database.DashboardStats{
		TotalStudents:   120,
		TodaySessions:   4,
		TodayAttendance: 87,
		LateRate:        12.5,
	}

	handler := NewAnalyticsHandler(analytics)
	recorder := httptest.NewRecorder()
	handler.Dashboard(recorder, httptest.NewRequest("GET", "/api/v1/analytics/dashboard", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var stats database.DashboardStats
	parseJSONResponse(t, recorder, &stats)
	if stats.TotalStudents != 120 || stats.LateRate != 12.5 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAnalyticsHandler_DashboardError(t *testing.T) {
	analytics := mock.NewMockAnalytics()
	analytics.DashboardError = errors.New("database down")

	handler := NewAnalyticsHandler(analytics)
	recorder := httptest.NewRecorder()
	handler.Dashboard(recorder, httptest.NewRequest("GET", "/api/v1/analytics/dashboard", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
}

func TestAnalyticsHandler_Distribution(t *testing.T) {
	analytics := mock.NewMockAnalytics()
	analytics.Distribution = []database.StatusCount{
		{Status: "late", Count: 5},
		{Status: "on_time", Count: 40},
	}

	handler := NewAnalyticsHandler(analytics)

	t.Run("DefaultDays", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.Distribution(recorder, httptest.NewRequest("GET", "/api/v1/analytics/distribution", nil))

		assertStatusCode(t, recorder, http.StatusOK)

		var resp struct {
			Days   int                    `json:"days"`
			Counts []database.StatusCount `json:"counts"`
		}
		parseJSONResponse(t, recorder, &resp)
		if resp.Days != defaultDistributionDays {
			t.Errorf("expected default days %d, got %d", defaultDistributionDays, resp.Days)
		}
		if len(resp.Counts) != 2 {
			t.Errorf("expected 2 buckets, got %d", len(resp.Counts))
		}
	})

	t.Run("BadDays", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.Distribution(recorder, httptest.NewRequest("GET", "/api/v1/analytics/distribution?days=-1", nil))

		assertStatusCode(t, recorder, http.StatusBadRequest)
		assertJSONError(t, recorder, "days must be a positive integer")
	})
}

func TestAnalyticsHandler_AtRisk(t *testing.T) {
	analytics := mock.NewMockAnalytics()
	analytics.Risky = []database.StudentRatio{
		{StudentCode: "S004", StudentName: "Phạm Quang Duy", SectionID: 1, Attended: 2, Total: 10, Ratio: 20},
	}

	handler := NewAnalyticsHandler(analytics)
	recorder := httptest.NewRecorder()
	handler.AtRisk(recorder, httptest.NewRequest("GET", "/api/v1/analytics/at-risk?below=50", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Below    float64                 `json:"below"`
		Students []database.StudentRatio `json:"students"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Below != 50 {
		t.Errorf("expected below 50, got %f", resp.Below)
	}
	if len(resp.Students) != 1 || resp.Students[0].StudentCode != "S004" {
		t.Errorf("unexpected students: %v", resp.Students)
	}
}

func TestAnalyticsHandler_StudentRatios(t *testing.T) {
	analytics := mock.NewMockAnalytics()
	analytics.Ratios = []database.StudentRatio{
		{StudentCode: "S001", SectionID: 1, Attended: 8, Total: 10, Ratio: 80},
	}

	handler := NewAnalyticsHandler(analytics)
	req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/students/S001/attendance", nil),
		map[string]string{"code": "S001"})
	recorder := httptest.NewRecorder()
	handler.StudentRatios(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var ratios []database.StudentRatio
	parseJSONResponse(t, recorder, &ratios)
	if len(ratios) != 1 || ratios[0].Ratio != 80 {
		t.Errorf("unexpected ratios: %v", ratios)
	}
}

func TestGalleryHandler_Info(t *testing.T) {
	store := mock.NewMockGalleryStore()
	store.SetEmbedding("S001", []float32{1, 0, 0})
	store.SetEmbedding("S002", []float32{0, 1, 0})

	handler := NewGalleryHandler(store, nil)
	recorder := httptest.NewRecorder()
	handler.Info(recorder, httptest.NewRequest("GET", "/api/v1/gallery", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Count int      `json:"count"`
		Codes []string `json:"codes"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 2 {
		t.Errorf("expected 2 embeddings, got %d", resp.Count)
	}
}

func TestGalleryHandler_Remove(t *testing.T) {
	store := mock.NewMockGalleryStore()
	store.SetEmbedding("S001", []float32{1, 0, 0})

	handler := NewGalleryHandler(store, nil)

	req := requestWithChiParams(httptest.NewRequest("DELETE", "/api/v1/gallery/S001", nil),
		map[string]string{"code": "S001"})
	recorder := httptest.NewRecorder()
	handler.Remove(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	recorder = httptest.NewRecorder()
	handler.Remove(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "no embedding for student")
}
