package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartattendai/smart-attendance/internal/database"
	"github.com/smartattendai/smart-attendance/internal/database/mock"
)

func TestStudentsHandler_List(t *testing.T) {
	store := mock.NewMockStudentStore()
	store.AddStudent(database.Student{Code: "S001", Name: "Trần Văn Bình", Class: "C1"})
	store.AddStudent(database.Student{Code: "S002", Name: "Lê Thị Hoa", Class: "C1"})

	handler := NewStudentsHandler(store)
	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/students", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var students []database.Student
	parseJSONResponse(t, recorder, &students)
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
	if students[0].Code != "S001" {
		t.Errorf("expected students ordered by code, got %s first", students[0].Code)
	}
}

func TestStudentsHandler_ListWithSearch(t *testing.T) {
	store := mock.NewMockStudentStore()
	store.AddStudent(database.Student{Code: "S001", Name: "Trần Văn Bình"})
	store.AddStudent(database.Student{Code: "S002", Name: "Lê Thị Hoa"})

	handler := NewStudentsHandler(store)
	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/students?q=tran+van", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var students []database.Student
	parseJSONResponse(t, recorder, &students)
	if len(students) != 1 || students[0].Code != "S001" {
		t.Errorf("expected S001 from diacritics-free search, got %v", students)
	}
}

func TestStudentsHandler_ListEmpty(t *testing.T) {
	handler := NewStudentsHandler(mock.NewMockStudentStore())
	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/students", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if body := recorder.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestStudentsHandler_ListError(t *testing.T) {
	store := mock.NewMockStudentStore()
	store.ListError = errors.New("database down")

	handler := NewStudentsHandler(store)
	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/api/v1/students", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to list students")
}

func TestStudentsHandler_Get(t *testing.T) {
	store := mock.NewMockStudentStore()
	store.AddStudent(database.Student{Code: "S001", Name: "Trần Văn Bình"})

	handler := NewStudentsHandler(store)

	t.Run("Found", func(t *testing.T) {
		req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/students/S001", nil),
			map[string]string{"code": "S001"})
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var student database.Student
		parseJSONResponse(t, recorder, &student)
		if student.Name != "Trần Văn Bình" {
			t.Errorf("unexpected name %q", student.Name)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/students/NOPE", nil),
			map[string]string{"code": "NOPE"})
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assertStatusCode(t, recorder, http.StatusNotFound)
		assertJSONError(t, recorder, "student not found")
	})
}

func TestStudentsHandler_Create(t *testing.T) {
	store := mock.NewMockStudentStore()
	handler := NewStudentsHandler(store)

	body := `{"code":"S010","name":"Ngô Minh An","class":"C2","birth_date":"2004-09-01"}`
	recorder := httptest.NewRecorder()
	handler.Create(recorder, httptest.NewRequest("POST", "/api/v1/students", bytes.NewBufferString(body)))

	assertStatusCode(t, recorder, http.StatusCreated)

	var student database.Student
	parseJSONResponse(t, recorder, &student)
	if student.Code != "S010" {
		t.Errorf("expected S010, got %s", student.Code)
	}
	if student.Status != "active" {
		t.Errorf("expected default status active, got %s", student.Status)
	}
	if student.BirthDate == nil || student.BirthDate.Year() != 2004 {
		t.Errorf("expected parsed birth date, got %v", student.BirthDate)
	}
}

func TestStudentsHandler_CreateValidation(t *testing.T) {
	handler := NewStudentsHandler(mock.NewMockStudentStore())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid JSON", `{`, errInvalidRequestBody},
		{"missing code", `{"name":"X"}`, "code and name are required"},
		{"missing name", `{"code":"S1"}`, "code and name are required"},
		{"bad birth date", `{"code":"S1","name":"X","birth_date":"01/02/2004"}`, "birth_date must be YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.Create(recorder, httptest.NewRequest("POST", "/api/v1/students", bytes.NewBufferString(tt.body)))
			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tt.want)
		})
	}
}

func TestStudentsHandler_CreateDuplicate(t *testing.T) {
	store := mock.NewMockStudentStore()
	store.AddStudent(database.Student{Code: "S001", Name: "Trần Văn Bình"})

	handler := NewStudentsHandler(store)
	recorder := httptest.NewRecorder()
	handler.Create(recorder, httptest.NewRequest("POST", "/api/v1/students",
		bytes.NewBufferString(`{"code":"S001","name":"Someone Else"}`)))

	assertStatusCode(t, recorder, http.StatusConflict)
	assertJSONError(t, recorder, "student code already exists")
}
