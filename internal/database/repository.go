package database

import (
	"context"
	"errors"
	"time"
)

// ErrStudentExists is returned by Create when the student code is taken.
var ErrStudentExists = errors.New("student code already exists")

// StudentReader provides read access to the student roster.
type StudentReader interface {
	// List returns all students ordered by code.
	List(ctx context.Context) ([]Student, error)
	// Get retrieves one student by code, nil if not found.
	Get(ctx context.Context, code string) (*Student, error)
	// Search finds students whose name matches the query, ignoring case and
	// diacritics ("tran binh" matches "Trần Văn Bình").
	Search(ctx context.Context, query string) ([]Student, error)
}

// StudentWriter extends StudentReader with roster mutations.
type StudentWriter interface {
	StudentReader

	// Create inserts a new student; ErrStudentExists on a duplicate code.
	Create(ctx context.Context, s Student) error
}

// SessionReader provides read access to scheduled class sessions.
type SessionReader interface {
	// Get retrieves one session by id, nil if not found.
	Get(ctx context.Context, id int64) (*Session, error)
	// ByDate returns the sessions scheduled on the given calendar day, with
	// section metadata, ordered by start time.
	ByDate(ctx context.Context, day time.Time) ([]SessionDetail, error)
}

// AttendanceReader lists recorded attendance for reporting.
type AttendanceReader interface {
	// BySession returns all records for a session, newest first.
	BySession(ctx context.Context, sessionID int64) ([]AttendanceEntry, error)
}

// AnalyticsReader serves aggregate attendance statistics.
type AnalyticsReader interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	// StatusDistribution counts records per status over the trailing period.
	StatusDistribution(ctx context.Context, days int) ([]StatusCount, error)
	// AtRisk returns per-section ratios below the given percentage.
	AtRisk(ctx context.Context, belowPercent float64) ([]StudentRatio, error)
	// StudentRatios returns the per-section ratios for one student.
	StudentRatios(ctx context.Context, code string) ([]StudentRatio, error)
}
