package memstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/application"
)

var errApplicationHasVariables = errors.New("application still has variables")

type appRepo struct{ s *Store }

func (r *appRepo) Create(ctx context.Context, a *application.Application) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.teams[a.TeamID]; !ok {
			return fmt.Errorf("inserting application: team %s: %w", a.TeamID, errMissingReference)
		}
		now := time.Now().UTC()
		a.ID = uuid.New()
		a.CreatedAt = now
		a.UpdatedAt = now
		st.apps[a.ID] = row[application.Application]{val: *a, seq: st.next()}
		return nil
	})
}

func (r *appRepo) GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	var out *application.Application
	r.s.read(ctx, func(st *state) {
		if rw, ok := st.apps[id]; ok {
			a := rw.val
			out = &a
		}
	})
	if out == nil {
		return nil, application.ErrApplicationNotFound
	}
	return out, nil
}

func (r *appRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]application.Application, error) {
	var rows []row[application.Application]
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.apps {
			if rw.val.TeamID == teamID {
				rows = append(rows, rw)
			}
		}
	})
	return sortedValues(rows), nil
}

func (r *appRepo) Rename(ctx context.Context, id uuid.UUID, name string) (*application.Application, error) {
	var out application.Application
	err := r.s.write(ctx, func(st *state) error {
		rw, ok := st.apps[id]
		if !ok {
			return application.ErrApplicationNotFound
		}
		rw.val.Name = name
		rw.val.UpdatedAt = time.Now().UTC()
		st.apps[id] = rw
		out = rw.val
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *appRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.apps[id]; !ok {
			return application.ErrApplicationNotFound
		}
		for _, v := range st.vars {
			if v.val.ApplicationID == id {
				return fmt.Errorf("deleting application: %w", errApplicationHasVariables)
			}
		}
		delete(st.apps, id)
		return nil
	})
}
