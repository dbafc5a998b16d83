package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/smartattendai/smart-attendance/internal/attendance"
	"github.com/smartattendai/smart-attendance/internal/database"
)

// LedgerRepository is the PostgreSQL-backed attendance ledger.
type LedgerRepository struct {
	pool   *Pool
	source string           // source tag written to every row
	now    func() time.Time // injectable clock
}

// NewLedgerRepository creates a ledger writing rows tagged with source.
func NewLedgerRepository(pool *Pool, source string) *LedgerRepository {
	return &LedgerRepository{pool: pool, source: source, now: time.Now}
}

// HasRecord reports whether the student is already recorded for the session.
func (r *LedgerRepository) HasRecord(ctx context.Context, code string, sessionID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM attendance WHERE student_code = $1 AND session_id = $2)",
		code, sessionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance record: %w", err)
	}
	return exists, nil
}

// Record inserts exactly one attendance row. The unique constraint on
// (student_code, session_id) is the second line of defense against races:
// a conflicting insert affects zero rows and surfaces attendance.ErrDuplicate
// instead of a second record.
func (r *LedgerRepository) Record(ctx context.Context, code string, sessionID int64, scheduledStart time.Time) (attendance.Status, error) {
	now := r.now()
	status := attendance.StatusAt(now, scheduledStart)

	result, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (student_code, session_id, recorded_at, status, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT attendance_once_per_session DO NOTHING
	`, code, sessionID, now, string(status), r.source)
	if err != nil {
		return "", fmt.Errorf("insert attendance record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return "", attendance.ErrDuplicate
	}
	return status, nil
}

// BySession returns all records for a session, newest first.
func (r *LedgerRepository) BySession(ctx context.Context, sessionID int64) ([]database.AttendanceEntry, error) {
	query := `
		SELECT a.id, a.student_code, st.name, COALESCE(st.class_name, ''),
		       a.session_id, a.recorded_at, a.status, a.source
		FROM attendance a
		JOIN students st ON st.code = a.student_code
		WHERE a.session_id = $1
		ORDER BY a.recorded_at DESC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session attendance: %w", err)
	}
	defer rows.Close()

	var entries []database.AttendanceEntry
	for rows.Next() {
		var e database.AttendanceEntry
		if err := rows.Scan(&e.ID, &e.StudentCode, &e.StudentName, &e.Class,
			&e.SessionID, &e.RecordedAt, &e.Status, &e.Source); err != nil {
			return nil, fmt.Errorf("scan attendance entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance entries: %w", err)
	}
	return entries, nil
}
