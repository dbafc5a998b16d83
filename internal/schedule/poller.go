package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/smartattendai/smart-attendance/internal/database"
)

const defaultPollTimeout = 3 * time.Second

// Poller caches the active session and refreshes it at a bounded interval.
// Detections arrive at video frame rate while session membership changes
// slowly, so callers hit the cache instead of the backing store per frame.
//
// A failed lookup keeps the last known session: a transient directory outage
// must not tear down an in-progress session (and with it the caller's
// checked-set).
type Poller struct {
	dir      Directory
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	last      *database.Session
	lastPoll  time.Time
	hasPolled bool
}

// NewPoller wraps a Directory with interval-bounded refresh.
func NewPoller(dir Directory, interval time.Duration) *Poller {
	return &Poller{
		dir:      dir,
		interval: interval,
		timeout:  defaultPollTimeout,
		now:      time.Now,
	}
}

// Active returns the cached active session, refreshing it when the poll
// interval has elapsed. Nil means no session is active.
func (p *Poller) Active(ctx context.Context) *database.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.hasPolled && now.Sub(p.lastPoll) < p.interval {
		return p.last
	}

	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	session, err := p.dir.ActiveSession(pollCtx)
	if err != nil {
		// Hold the last known state; retry on the next interval.
		log.Printf("session poll failed, keeping last known state: %v", err)
		p.lastPoll = now
		p.hasPolled = true
		return p.last
	}

	p.last = session
	p.lastPoll = now
	p.hasPolled = true
	return p.last
}

// IsEnrolled delegates to the underlying directory.
func (p *Poller) IsEnrolled(ctx context.Context, code string, sectionID int64) (bool, error) {
	return p.dir.IsEnrolled(ctx, code, sectionID)
}
