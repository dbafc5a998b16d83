package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/smartattendai/smart-attendance/internal/database"
	"github.com/smartattendai/smart-attendance/internal/gallery"
	"github.com/smartattendai/smart-attendance/internal/recognize"
)

// SessionSource exposes the active session and enrollment checks. Satisfied
// by schedule.Poller.
type SessionSource interface {
	Active(ctx context.Context) *database.Session
	IsEnrolled(ctx context.Context, code string, sectionID int64) (bool, error)
}

// OutcomeKind classifies the result of observing one probe.
type OutcomeKind string

const (
	// OutcomeNoSession means no session is currently active.
	OutcomeNoSession OutcomeKind = "no_session"
	// OutcomeUnknown means the probe matched nobody above the threshold.
	OutcomeUnknown OutcomeKind = "unknown"
	// OutcomeNotEnrolled means the student is known but not in this section.
	OutcomeNotEnrolled OutcomeKind = "not_enrolled"
	// OutcomeAlreadyChecked means the student already has a record.
	OutcomeAlreadyChecked OutcomeKind = "already_checked"
	// OutcomeChecked means a new attendance record was created.
	OutcomeChecked OutcomeKind = "checked"
)

// Outcome is the result of one observation.
type Outcome struct {
	Kind       OutcomeKind           `json:"kind"`
	Identity   string                `json:"identity,omitempty"`
	Score      float64               `json:"score"`
	Status     Status                `json:"status,omitempty"`
	SessionID  int64                 `json:"session_id,omitempty"`
	TopMatches []recognize.Candidate `json:"top_matches,omitempty"`
}

// Controller drives check-ins from a stream of face embeddings. It matches
// each probe against the gallery, gates the match on session enrollment and
// writes at most one ledger row per student and session.
//
// The checked set is the fast path: once a student is recorded for the
// current session, later sightings never reach the ledger. The set is wiped
// whenever the active session changes. The ledger's unique constraint backs
// the same rule up at the storage layer.
type Controller struct {
	sessions  SessionSource
	ledger    Ledger
	store     gallery.Store
	threshold float64
	reloadTTL time.Duration
	now       func() time.Time

	mu        sync.Mutex
	session   *database.Session
	checked   map[string]bool
	gallery   gallery.Gallery
	galleryAt time.Time
	hasReload bool
}

// NewController creates a controller. reloadTTL bounds how long a cached
// gallery is served before the store is read again.
func NewController(sessions SessionSource, ledger Ledger, store gallery.Store,
	threshold float64, reloadTTL time.Duration) *Controller {
	return &Controller{
		sessions:  sessions,
		ledger:    ledger,
		store:     store,
		threshold: threshold,
		reloadTTL: reloadTTL,
		now:       time.Now,
		checked:   make(map[string]bool),
	}
}

// Observe matches one probe embedding and records attendance for the current
// session. A nil error with a non-checked outcome is the common case; errors
// are transient and leave all controller state untouched.
func (c *Controller) Observe(ctx context.Context, probe []float32) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.sessions.Active(ctx)
	c.trackSession(session)
	if session == nil {
		return Outcome{Kind: OutcomeNoSession}, nil
	}

	g, err := c.currentGallery(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load gallery: %w", err)
	}

	match := recognize.Classify(probe, g, c.threshold)
	if !match.Identified {
		return Outcome{
			Kind:       OutcomeUnknown,
			Score:      match.Score,
			SessionID:  session.ID,
			TopMatches: match.TopMatches,
		}, nil
	}

	outcome := Outcome{
		Identity:   match.Identity,
		Score:      match.Score,
		SessionID:  session.ID,
		TopMatches: match.TopMatches,
	}

	if c.checked[match.Identity] {
		outcome.Kind = OutcomeAlreadyChecked
		return outcome, nil
	}

	enrolled, err := c.sessions.IsEnrolled(ctx, match.Identity, session.SectionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("check enrollment for %s: %w", match.Identity, err)
	}
	if !enrolled {
		outcome.Kind = OutcomeNotEnrolled
		return outcome, nil
	}

	has, err := c.ledger.HasRecord(ctx, match.Identity, session.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("check record for %s: %w", match.Identity, err)
	}
	if has {
		c.checked[match.Identity] = true
		outcome.Kind = OutcomeAlreadyChecked
		return outcome, nil
	}

	status, err := c.ledger.Record(ctx, match.Identity, session.ID, session.StartTime)
	if errors.Is(err, ErrDuplicate) {
		// Lost a race with a concurrent writer; the constraint held.
		c.checked[match.Identity] = true
		outcome.Kind = OutcomeAlreadyChecked
		return outcome, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("record attendance for %s: %w", match.Identity, err)
	}

	c.checked[match.Identity] = true
	outcome.Kind = OutcomeChecked
	outcome.Status = status
	log.Printf("Checked in %s for session %d (%s)", match.Identity, session.ID, status)
	return outcome, nil
}

// trackSession wipes the checked set when the active session changes.
// Callers hold c.mu.
func (c *Controller) trackSession(session *database.Session) {
	switch {
	case session == nil && c.session == nil:
		return
	case session != nil && c.session != nil && session.ID == c.session.ID:
		return
	}
	c.session = session
	c.checked = make(map[string]bool)
}

// currentGallery serves the cached gallery, reloading it wholesale when the
// TTL has elapsed. A failed reload keeps the cached copy. Callers hold c.mu.
func (c *Controller) currentGallery(ctx context.Context) (gallery.Gallery, error) {
	now := c.now()
	if c.hasReload && now.Sub(c.galleryAt) < c.reloadTTL {
		return c.gallery, nil
	}

	g, err := c.store.Reload(ctx)
	if err != nil {
		if c.hasReload {
			log.Printf("gallery reload failed, serving cached copy: %v", err)
			return c.gallery, nil
		}
		return nil, err
	}

	c.gallery = g
	c.galleryAt = now
	c.hasReload = true
	return c.gallery, nil
}

// InvalidateGallery forces the next observation to reload the gallery. Called
// after training writes a new embedding.
func (c *Controller) InvalidateGallery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasReload = false
}

// CheckedCount returns the number of students recorded in the current
// session's checked set.
func (c *Controller) CheckedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.checked)
}
