package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartattendai/smart-attendance/internal/database"
	"github.com/smartattendai/smart-attendance/internal/database/mock"
)

func TestSessionsHandler_ListByDate(t *testing.T) {
	schedule := mock.NewMockScheduleStore()
	schedule.AddSession(database.SessionDetail{
		Session: database.Session{
			ID:        7,
			SectionID: 1,
			Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			StartTime: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		},
		SubjectName: "Databases",
		Lecturer:    "Dr. Smith",
	})

	handler := NewSessionsHandler(schedule, nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/sessions?date=2026-03-10", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var sessions []database.SessionDetail
	parseJSONResponse(t, recorder, &sessions)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].SubjectName != "Databases" {
		t.Errorf("unexpected subject %q", sessions[0].SubjectName)
	}
}

func TestSessionsHandler_ListBadDate(t *testing.T) {
	handler := NewSessionsHandler(mock.NewMockScheduleStore(), nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/sessions?date=10-03-2026", nil))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "date must be YYYY-MM-DD")
}

func TestSessionsHandler_Get(t *testing.T) {
	schedule := mock.NewMockScheduleStore()
	schedule.AddSession(database.SessionDetail{
		Session: database.Session{ID: 7, SectionID: 1, StartTime: time.Now()},
	})

	handler := NewSessionsHandler(schedule, nil)

	t.Run("Found", func(t *testing.T) {
		req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/sessions/7", nil),
			map[string]string{"id": "7"})
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
	})

	t.Run("NotFound", func(t *testing.T) {
		req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/sessions/99", nil),
			map[string]string{"id": "99"})
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assertStatusCode(t, recorder, http.StatusNotFound)
		assertJSONError(t, recorder, "session not found")
	})
}

func TestSessionsHandler_Active(t *testing.T) {
	session := &database.Session{ID: 7, SectionID: 1, StartTime: time.Now()}
	handler := NewSessionsHandler(mock.NewMockScheduleStore(), &staticSessions{session: session})

	recorder := httptest.NewRecorder()
	handler.Active(recorder, httptest.NewRequest("GET", "/api/v1/sessions/active", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]any
	parseJSONResponse(t, recorder, &resp)
	if resp["active"] != true {
		t.Errorf("expected active session, got %v", resp)
	}
}

func TestSessionsHandler_ActiveNone(t *testing.T) {
	handler := NewSessionsHandler(mock.NewMockScheduleStore(), &staticSessions{})

	recorder := httptest.NewRecorder()
	handler.Active(recorder, httptest.NewRequest("GET", "/api/v1/sessions/active", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]any
	parseJSONResponse(t, recorder, &resp)
	if resp["active"] != false {
		t.Errorf("expected no active session, got %v", resp)
	}
}
