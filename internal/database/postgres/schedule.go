package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/smartattendai/smart-attendance/internal/database"
)

// ScheduleRepository resolves sessions and enrollment from the relational
// store. It implements schedule.Directory and database.SessionReader.
type ScheduleRepository struct {
	pool   *Pool
	window time.Duration    // how long after its start a session stays active
	now    func() time.Time // injectable clock
}

// NewScheduleRepository creates a schedule repository with the given active
// window.
func NewScheduleRepository(pool *Pool, window time.Duration) *ScheduleRepository {
	return &ScheduleRepository{pool: pool, window: window, now: time.Now}
}

// parseStartTime combines a session's date with its scheduled start time
// ("15:04:05" from a TIME column) in the date's location.
func parseStartTime(day time.Time, start string) (time.Time, error) {
	t, err := time.Parse("15:04:05", start)
	if err != nil {
		// Some drivers return TIME without seconds.
		t, err = time.Parse("15:04", start)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse start time %q: %w", start, err)
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
}

func scanSessions(rows *sql.Rows) ([]database.SessionDetail, error) {
	var sessions []database.SessionDetail
	for rows.Next() {
		var (
			s     database.SessionDetail
			start string
		)
		if err := rows.Scan(&s.ID, &s.SectionID, &s.Date, &start, &s.SubjectName, &s.Lecturer); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		st, err := parseStartTime(s.Date, start)
		if err != nil {
			return nil, err
		}
		s.StartTime = st
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ByDate returns the sessions scheduled on the given calendar day.
func (r *ScheduleRepository) ByDate(ctx context.Context, day time.Time) ([]database.SessionDetail, error) {
	query := `
		SELECT s.id, s.section_id, s.session_date, s.start_time::text,
		       sec.subject_name, sec.lecturer
		FROM sessions s
		JOIN sections sec ON sec.id = s.section_id
		WHERE s.session_date = $1
		ORDER BY s.start_time
	`

	rows, err := r.pool.Query(ctx, query, day.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query sessions by date: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// Get retrieves one session by id, nil if not found.
func (r *ScheduleRepository) Get(ctx context.Context, id int64) (*database.Session, error) {
	query := `
		SELECT id, section_id, session_date, start_time::text
		FROM sessions
		WHERE id = $1
	`

	var (
		s     database.Session
		start string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.SectionID, &s.Date, &start)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	st, err := parseStartTime(s.Date, start)
	if err != nil {
		return nil, err
	}
	s.StartTime = st
	return &s, nil
}

// sessionOpensBefore is how long before its scheduled start a session
// accepts check-ins. Early arrivals must be recordable as on-time, so the
// window has to open ahead of the start.
const sessionOpensBefore = 30 * time.Minute

// ActiveSession returns today's session whose window
// [start-sessionOpensBefore, start+window) contains now, or nil. With
// overlapping schedules the earliest matching start wins.
func (r *ScheduleRepository) ActiveSession(ctx context.Context) (*database.Session, error) {
	now := r.now()

	today, err := r.ByDate(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, s := range today {
		if !now.Before(s.StartTime.Add(-sessionOpensBefore)) && now.Before(s.StartTime.Add(r.window)) {
			session := s.Session
			return &session, nil
		}
	}
	return nil, nil
}

// IsEnrolled reports whether the student is registered for the section.
func (r *ScheduleRepository) IsEnrolled(ctx context.Context, code string, sectionID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_code = $1 AND section_id = $2)",
		code, sectionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}
