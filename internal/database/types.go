package database

import (
	"time"
)

// Student represents one enrolled person, keyed by a unique student code.
type Student struct {
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	Class     string     `json:"class,omitempty"`
	Faculty   string     `json:"faculty,omitempty"`
	Email     string     `json:"email,omitempty"`
	Status    string     `json:"status"`
}

// Session represents one scheduled class meeting. Rows are created by
// scheduling data entry and are read-only to this service.
type Session struct {
	ID        int64     `json:"id"`
	SectionID int64     `json:"section_id"`
	Date      time.Time `json:"date"`       // calendar day of the meeting
	StartTime time.Time `json:"start_time"` // scheduled start, full timestamp on Date
}

// SessionDetail is a Session joined with its section metadata for listings.
type SessionDetail struct {
	Session
	SubjectName string `json:"subject_name"`
	Lecturer    string `json:"lecturer"`
}

// AttendanceEntry is one ledger row joined with student info for listings.
type AttendanceEntry struct {
	ID          int64     `json:"id"`
	StudentCode string    `json:"student_code"`
	StudentName string    `json:"student_name"`
	Class       string    `json:"class,omitempty"`
	SessionID   int64     `json:"session_id"`
	RecordedAt  time.Time `json:"recorded_at"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
}

// DashboardStats are the headline counters for the analytics dashboard.
type DashboardStats struct {
	TotalStudents   int     `json:"total_students"`
	TodaySessions   int     `json:"today_sessions"`
	TodayAttendance int     `json:"today_attendance"`
	LateRate        float64 `json:"late_rate"` // percentage of today's records marked late
}

// StatusCount is one slice of the attendance status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// StudentRatio is the attendance ratio of one student in one section.
type StudentRatio struct {
	StudentCode string  `json:"student_code"`
	StudentName string  `json:"student_name"`
	SectionID   int64   `json:"section_id"`
	Attended    int     `json:"attended"`
	Total       int     `json:"total"`
	Ratio       float64 `json:"ratio"` // percentage
}
