package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/auth"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, u *auth.User) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.users {
			if existing.val.Email == u.Email {
				return auth.ErrUserAlreadyExists
			}
		}
		if u.TeamID != nil {
			if _, ok := st.teams[*u.TeamID]; !ok {
				return fmt.Errorf("inserting user: team %s: %w", *u.TeamID, errMissingReference)
			}
		}
		u.ID = uuid.New()
		u.CreatedAt = time.Now().UTC()
		st.users[u.ID] = row[auth.User]{val: *u, seq: st.next()}
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	var out *auth.User
	r.s.read(ctx, func(st *state) {
		if rw, ok := st.users[id]; ok {
			u := rw.val
			out = &u
		}
	})
	if out == nil {
		return nil, auth.ErrUserNotFound
	}
	return out, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var out *auth.User
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.users {
			if rw.val.Email == email {
				u := rw.val
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, auth.ErrUserNotFound
	}
	return out, nil
}

func (r *userRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]auth.User, error) {
	var rows []row[auth.User]
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.users {
			if rw.val.TeamID != nil && *rw.val.TeamID == teamID {
				rows = append(rows, rw)
			}
		}
	})
	return sortedValues(rows), nil
}

func (r *userRepo) SetTeam(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		rw, ok := st.users[userID]
		if !ok {
			return auth.ErrUserNotFound
		}
		if teamID == nil {
			rw.val.TeamID = nil
			st.users[userID] = rw
			return nil
		}
		if _, ok := st.teams[*teamID]; !ok {
			return fmt.Errorf("setting user team: team %s: %w", *teamID, errMissingReference)
		}
		id := *teamID
		rw.val.TeamID = &id
		st.users[userID] = rw
		return nil
	})
}
