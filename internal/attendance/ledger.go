// Package attendance holds the attendance ledger contract, the on-time/late
// status policy, and the session attendance controller that drives check-ins
// from a live detection stream.
package attendance

import (
	"context"
	"errors"
	"time"
)

// Status tags an attendance record as on-time or late.
type Status string

const (
	StatusOnTime Status = "on_time"
	StatusLate   Status = "late"
)

// ErrDuplicate is returned by Record when a row for the same student and
// session already exists. The storage layer enforces this with a unique
// constraint, so it holds even under concurrent writers.
var ErrDuplicate = errors.New("attendance already recorded")

// Ledger is the durable attendance record store. Records are append-only;
// at most one row exists per (student, session) pair.
type Ledger interface {
	// HasRecord reports whether the student is already recorded for the session.
	HasRecord(ctx context.Context, code string, sessionID int64) (bool, error)
	// Record inserts exactly one row and returns its computed status.
	// Returns ErrDuplicate instead of creating a second row.
	Record(ctx context.Context, code string, sessionID int64, scheduledStart time.Time) (Status, error)
}

// StatusAt computes the recorded status for a check-in at the given instant.
// The boundary is inclusive on the early side: a check-in at exactly the
// scheduled start is on-time, one second after is late. Deployments with a
// grace window still record "late" within it; no third status exists.
func StatusAt(now, scheduledStart time.Time) Status {
	if !now.After(scheduledStart) {
		return StatusOnTime
	}
	return StatusLate
}
