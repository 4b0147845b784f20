package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/audit"
)

type auditRepo struct{ s *Store }

// Append does not wait for running transactions, so records made outside a
// transaction never queue behind one.
func (r *auditRepo) Append(ctx context.Context, e *audit.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e.ID = uuid.New()
	r.s.st.auditLogs = append(r.s.st.auditLogs, *e)
	if tx := txFrom(ctx); tx != nil {
		tx.audit[e.ID] = struct{}{}
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error) {
	filter.Normalize()

	matched := []audit.Entry{}
	r.s.read(ctx, func(st *state) {
		for i := len(st.auditLogs) - 1; i >= 0; i-- {
			e := st.auditLogs[i]
			if matches(st, e, filter) {
				matched = append(matched, e)
			}
		}
	})
	// Newest first: by CreatedAt, then by insertion.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := (filter.Page - 1) * filter.Limit
	end := start + filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return &audit.ListResult{
		Entries: matched[start:end],
		Total:   len(matched),
		Page:    filter.Page,
		Limit:   filter.Limit,
	}, nil
}

func matches(st *state, e audit.Entry, f audit.Filter) bool {
	if f.TeamID != nil {
		if e.UserID == nil {
			return false
		}
		u, ok := st.users[*e.UserID]
		if !ok || u.val.TeamID == nil || *u.val.TeamID != *f.TeamID {
			return false
		}
	}
	if f.UserID != nil && (e.UserID == nil || *e.UserID != *f.UserID) {
		return false
	}
	if f.Action != nil && e.Action != *f.Action {
		return false
	}
	if f.TargetType != nil && e.TargetType != *f.TargetType {
		return false
	}
	if f.TargetID != nil && e.TargetID != *f.TargetID {
		return false
	}
	return true
}
