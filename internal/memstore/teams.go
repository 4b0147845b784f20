package memstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/team"
)

type teamRepo struct{ s *Store }

func (r *teamRepo) Create(ctx context.Context, t *team.Team) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.teams {
			if existing.val.Code == t.Code {
				return team.ErrDuplicateCode
			}
		}
		now := time.Now().UTC()
		t.ID = uuid.New()
		t.CreatedAt = now
		t.UpdatedAt = now
		st.teams[t.ID] = row[team.Team]{val: *t, seq: st.next()}
		return nil
	})
}

func (r *teamRepo) GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	var out *team.Team
	r.s.read(ctx, func(st *state) {
		if rw, ok := st.teams[id]; ok {
			t := rw.val
			out = &t
		}
	})
	if out == nil {
		return nil, team.ErrTeamNotFound
	}
	return out, nil
}

func (r *teamRepo) GetByCode(ctx context.Context, code string) (*team.Team, error) {
	var out *team.Team
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.teams {
			if rw.val.Code == code {
				t := rw.val
				out = &t
				return
			}
		}
	})
	if out == nil {
		return nil, team.ErrTeamNotFound
	}
	return out, nil
}

func (r *teamRepo) List(ctx context.Context) ([]team.Team, error) {
	var rows []row[team.Team]
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.teams {
			rows = append(rows, rw)
		}
	})
	return sortedValues(rows), nil
}

func (r *teamRepo) Rename(ctx context.Context, id uuid.UUID, name string) (*team.Team, error) {
	var out team.Team
	err := r.s.write(ctx, func(st *state) error {
		rw, ok := st.teams[id]
		if !ok {
			return team.ErrTeamNotFound
		}
		rw.val.Name = name
		rw.val.UpdatedAt = time.Now().UTC()
		st.teams[id] = rw
		out = rw.val
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *teamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.teams[id]; !ok {
			return team.ErrTeamNotFound
		}
		for _, u := range st.users {
			if u.val.TeamID != nil && *u.val.TeamID == id {
				return team.ErrTeamHasDependents
			}
		}
		for _, a := range st.apps {
			if a.val.TeamID == id {
				return team.ErrTeamHasDependents
			}
		}
		delete(st.teams, id)
		return nil
	})
}

// sortedValues returns the records in insertion order.
func sortedValues[T any](rows []row[T]) []T {
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]T, len(rows))
	for i, rw := range rows {
		out[i] = rw.val
	}
	return out
}

var errMissingReference = errors.New("referenced row does not exist")
