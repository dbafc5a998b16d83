// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smartattendai/smart-attendance/internal/attendance"
	"github.com/smartattendai/smart-attendance/internal/database"
	"github.com/smartattendai/smart-attendance/internal/gallery"
	"github.com/smartattendai/smart-attendance/internal/recognize"
	"github.com/smartattendai/smart-attendance/internal/schedule"
)

// MockStudentStore is a mock implementation of database.StudentWriter
type MockStudentStore struct {
	mu       sync.RWMutex
	students map[string]*database.Student

	// Error injection
	ListError   error
	GetError    error
	SearchError error
	CreateError error
}

// NewMockStudentStore creates a new mock student store
func NewMockStudentStore() *MockStudentStore {
	return &MockStudentStore{
		students: make(map[string]*database.Student),
	}
}

// AddStudent adds a student to the mock store
func (m *MockStudentStore) AddStudent(s database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Status == "" {
		s.Status = "active"
	}
	m.students[s.Code] = &s
}

// List returns all students ordered by code
func (m *MockStudentStore) List(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Student
	for _, s := range m.students {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// Get retrieves one student by code
func (m *MockStudentStore) Get(ctx context.Context, code string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[code]
	if !ok {
		return nil, nil
	}
	copy := *s
	return &copy, nil
}

// Search finds students by normalized name match
func (m *MockStudentStore) Search(ctx context.Context, query string) ([]database.Student, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := recognize.NormalizeStudentName(query)
	var result []database.Student
	for _, s := range m.students {
		if strings.Contains(recognize.NormalizeStudentName(s.Name), needle) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// Create inserts a new student
func (m *MockStudentStore) Create(ctx context.Context, s database.Student) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.Code]; ok {
		return database.ErrStudentExists
	}
	if s.Status == "" {
		s.Status = "active"
	}
	m.students[s.Code] = &s
	return nil
}

// MockScheduleStore is a mock implementation of database.SessionReader and
// schedule.Directory
type MockScheduleStore struct {
	mu          sync.RWMutex
	sessions    map[int64]*database.SessionDetail
	active      *database.Session
	enrollments map[string]map[int64]bool // code -> section ids

	// Track calls
	ActiveCalls int

	// Error injection
	GetError        error
	ByDateError     error
	ActiveError     error
	IsEnrolledError error
}

// NewMockScheduleStore creates a new mock schedule store
func NewMockScheduleStore() *MockScheduleStore {
	return &MockScheduleStore{
		sessions:    make(map[int64]*database.SessionDetail),
		enrollments: make(map[string]map[int64]bool),
	}
}

// AddSession adds a session to the mock store
func (m *MockScheduleStore) AddSession(s database.SessionDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &s
}

// SetActive sets the session returned by ActiveSession
func (m *MockScheduleStore) SetActive(s *database.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = s
}

// Enroll registers a student in a section
func (m *MockScheduleStore) Enroll(code string, sectionID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrollments[code] == nil {
		m.enrollments[code] = make(map[int64]bool)
	}
	m.enrollments[code][sectionID] = true
}

// Get retrieves one session by id
func (m *MockScheduleStore) Get(ctx context.Context, id int64) (*database.Session, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	copy := s.Session
	return &copy, nil
}

// ByDate returns the sessions scheduled on the given day
func (m *MockScheduleStore) ByDate(ctx context.Context, day time.Time) ([]database.SessionDetail, error) {
	if m.ByDateError != nil {
		return nil, m.ByDateError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	y, mo, d := day.Date()
	var result []database.SessionDetail
	for _, s := range m.sessions {
		sy, smo, sd := s.Date.Date()
		if sy == y && smo == mo && sd == d {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

// ActiveSession returns the configured active session
func (m *MockScheduleStore) ActiveSession(ctx context.Context) (*database.Session, error) {
	m.mu.Lock()
	m.ActiveCalls++
	m.mu.Unlock()

	if m.ActiveError != nil {
		return nil, m.ActiveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil, nil
	}
	copy := *m.active
	return &copy, nil
}

// IsEnrolled reports whether the student is enrolled in the section
func (m *MockScheduleStore) IsEnrolled(ctx context.Context, code string, sectionID int64) (bool, error) {
	if m.IsEnrolledError != nil {
		return false, m.IsEnrolledError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enrollments[code][sectionID], nil
}

// MockLedger is a mock implementation of attendance.Ledger and
// database.AttendanceReader
type MockLedger struct {
	mu      sync.RWMutex
	entries []database.AttendanceEntry
	nextID  int64

	// Now is the clock used for recorded status, defaults to time.Now
	Now func() time.Time

	// Error injection
	HasRecordError error
	RecordError    error
	BySessionError error
}

// NewMockLedger creates a new mock ledger
func NewMockLedger() *MockLedger {
	return &MockLedger{Now: time.Now}
}

// HasRecord checks if the student already has a record for the session
func (m *MockLedger) HasRecord(ctx context.Context, code string, sessionID int64) (bool, error) {
	if m.HasRecordError != nil {
		return false, m.HasRecordError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.StudentCode == code && e.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

// Record creates a new attendance record
func (m *MockLedger) Record(ctx context.Context, code string, sessionID int64, scheduledStart time.Time) (attendance.Status, error) {
	if m.RecordError != nil {
		return "", m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.StudentCode == code && e.SessionID == sessionID {
			return "", attendance.ErrDuplicate
		}
	}

	now := m.Now()
	status := attendance.StatusAt(now, scheduledStart)
	m.nextID++
	m.entries = append(m.entries, database.AttendanceEntry{
		ID:          m.nextID,
		StudentCode: code,
		SessionID:   sessionID,
		RecordedAt:  now,
		Status:      string(status),
		Source:      "Webcam",
	})
	return status, nil
}

// BySession returns all records for a session, newest first
func (m *MockLedger) BySession(ctx context.Context, sessionID int64) ([]database.AttendanceEntry, error) {
	if m.BySessionError != nil {
		return nil, m.BySessionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceEntry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RecordedAt.After(result[j].RecordedAt) })
	return result, nil
}

// Entries returns a copy of every recorded entry
func (m *MockLedger) Entries() []database.AttendanceEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.AttendanceEntry(nil), m.entries...)
}

// MockGalleryStore is a mock implementation of gallery.Store
type MockGalleryStore struct {
	mu         sync.RWMutex
	embeddings gallery.Gallery

	// Track calls
	ReloadCalls int
	UpsertCalls []string

	// Error injection
	ReloadError error
	UpsertError error
	RemoveError error
}

// NewMockGalleryStore creates a new mock gallery store
func NewMockGalleryStore() *MockGalleryStore {
	return &MockGalleryStore{embeddings: make(gallery.Gallery)}
}

// SetEmbedding sets a reference embedding directly
func (m *MockGalleryStore) SetEmbedding(code string, embedding []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[code] = embedding
}

// Reload returns a copy of the whole gallery
func (m *MockGalleryStore) Reload(ctx context.Context) (gallery.Gallery, error) {
	m.mu.Lock()
	m.ReloadCalls++
	m.mu.Unlock()

	if m.ReloadError != nil {
		return nil, m.ReloadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := make(gallery.Gallery, len(m.embeddings))
	for code, emb := range m.embeddings {
		g[code] = emb
	}
	return g, nil
}

// Upsert stores a reference embedding
func (m *MockGalleryStore) Upsert(ctx context.Context, code string, embedding []float32) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls = append(m.UpsertCalls, code)
	m.embeddings[code] = embedding
	return nil
}

// Remove deletes a reference embedding
func (m *MockGalleryStore) Remove(ctx context.Context, code string) (bool, error) {
	if m.RemoveError != nil {
		return false, m.RemoveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.embeddings[code]
	delete(m.embeddings, code)
	return ok, nil
}

// MockAnalytics is a mock implementation of database.AnalyticsReader with
// canned responses
type MockAnalytics struct {
	Stats        *database.DashboardStats
	Distribution []database.StatusCount
	Risky        []database.StudentRatio
	Ratios       []database.StudentRatio

	// Error injection
	DashboardError    error
	DistributionError error
	AtRiskError       error
	RatiosError       error
}

// NewMockAnalytics creates a new mock analytics reader
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{Stats: &database.DashboardStats{}}
}

func (m *MockAnalytics) Dashboard(ctx context.Context) (*database.DashboardStats, error) {
	if m.DashboardError != nil {
		return nil, m.DashboardError
	}
	return m.Stats, nil
}

func (m *MockAnalytics) StatusDistribution(ctx context.Context, days int) ([]database.StatusCount, error) {
	if m.DistributionError != nil {
		return nil, m.DistributionError
	}
	return m.Distribution, nil
}

func (m *MockAnalytics) AtRisk(ctx context.Context, belowPercent float64) ([]database.StudentRatio, error) {
	if m.AtRiskError != nil {
		return nil, m.AtRiskError
	}
	return m.Risky, nil
}

func (m *MockAnalytics) StudentRatios(ctx context.Context, code string) ([]database.StudentRatio, error) {
	if m.RatiosError != nil {
		return nil, m.RatiosError
	}
	return m.Ratios, nil
}

// Verify interface compliance
var _ database.StudentWriter = (*MockStudentStore)(nil)
var _ database.SessionReader = (*MockScheduleStore)(nil)
var _ schedule.Directory = (*MockScheduleStore)(nil)
var _ attendance.Ledger = (*MockLedger)(nil)
var _ database.AttendanceReader = (*MockLedger)(nil)
var _ gallery.Store = (*MockGalleryStore)(nil)
var _ database.AnalyticsReader = (*MockAnalytics)(nil)
