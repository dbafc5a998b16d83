// Package schedule resolves the currently active class session and student
// enrollment from persisted scheduling data.
package schedule

import (
	"context"

	"github.com/smartattendai/smart-attendance/internal/database"
)

// Directory answers "what session is active right now" and "is this student
// registered for that session's section". Scheduling rows are owned by admin
// data entry and are read-only here.
type Directory interface {
	// ActiveSession returns the session whose scheduled window contains now,
	// or nil when no session is active.
	ActiveSession(ctx context.Context) (*database.Session, error)
	// IsEnrolled reports whether the student is registered for the section.
	IsEnrolled(ctx context.Context, code string, sectionID int64) (bool, error)
}
