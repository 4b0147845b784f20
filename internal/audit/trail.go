package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/metrics"
)

// Recorder appends audit entries. Services depend on this rather than on Trail.
type Recorder interface {
	Record(ctx context.Context, action, targetType, targetID string, userID *uuid.UUID) (*Entry, error)
}

// Trail appends audit entries. It stamps each entry itself so that CreatedAt
// never decreases in stamping order, even if the wall clock steps backwards.
// Listings order by CreatedAt and then by insertion.
type Trail struct {
	repo Repository
	now  func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewTrail creates a Trail writing to repo.
func NewTrail(repo Repository) *Trail {
	return &Trail{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used to stamp entries.
func (t *Trail) WithClock(now func() time.Time) *Trail {
	t.now = now
	return t
}

// Record appends one entry. userID may be nil for unattributed actions.
//
// Only the stamp is taken under the lock. The append itself may wait for a
// storage connection and must not hold up callers that already own one.
func (t *Trail) Record(ctx context.Context, action, targetType, targetID string, userID *uuid.UUID) (*Entry, error) {
	e := &Entry{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		UserID:     userID,
		CreatedAt:  t.stamp(),
	}
	if err := t.repo.Append(ctx, e); err != nil {
		return nil, fmt.Errorf("recording %s: %w", action, err)
	}

	metrics.AuditEntriesTotal.WithLabelValues(action).Inc()
	return e, nil
}

// stamp returns the current time, clamped so it never precedes an earlier stamp.
func (t *Trail) stamp() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now()
	if ts.Before(t.last) {
		ts = t.last
	}
	t.last = ts
	return ts
}

// List returns a page of entries matching filter.
func (t *Trail) List(ctx context.Context, filter Filter) (*ListResult, error) {
	return t.repo.List(ctx, filter)
}
