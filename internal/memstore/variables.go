package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/variable"
)

type varRepo struct{ s *Store }

func (r *varRepo) Create(ctx context.Context, v *variable.Variable) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.apps[v.ApplicationID]; !ok {
			return fmt.Errorf("inserting variable: application %s: %w", v.ApplicationID, errMissingReference)
		}
		for _, existing := range st.vars {
			if existing.val.ApplicationID == v.ApplicationID && existing.val.Key == v.Key {
				return variable.ErrDuplicateKey
			}
		}
		now := time.Now().UTC()
		v.ID = uuid.New()
		v.CreatedAt = now
		v.UpdatedAt = now
		st.vars[v.ID] = row[variable.Variable]{val: *v, seq: st.next()}
		return nil
	})
}

func (r *varRepo) GetByID(ctx context.Context, id uuid.UUID) (*variable.Variable, error) {
	var out *variable.Variable
	r.s.read(ctx, func(st *state) {
		if rw, ok := st.vars[id]; ok {
			v := rw.val
			out = &v
		}
	})
	if out == nil {
		return nil, variable.ErrVariableNotFound
	}
	return out, nil
}

func (r *varRepo) GetByKey(ctx context.Context, applicationID uuid.UUID, key string) (*variable.Variable, error) {
	var out *variable.Variable
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.vars {
			if rw.val.ApplicationID == applicationID && rw.val.Key == key {
				v := rw.val
				out = &v
				return
			}
		}
	})
	if out == nil {
		return nil, variable.ErrVariableNotFound
	}
	return out, nil
}

func (r *varRepo) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]variable.Variable, error) {
	out := []variable.Variable{}
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.vars {
			if rw.val.ApplicationID == applicationID {
				out = append(out, rw.val)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *varRepo) Update(ctx context.Context, id uuid.UUID, fields variable.UpdateFields) (*variable.Variable, error) {
	var out variable.Variable
	err := r.s.write(ctx, func(st *state) error {
		rw, ok := st.vars[id]
		if !ok {
			return variable.ErrVariableNotFound
		}
		if fields.Key != nil && *fields.Key != rw.val.Key {
			for otherID, other := range st.vars {
				if otherID != id && other.val.ApplicationID == rw.val.ApplicationID && other.val.Key == *fields.Key {
					return variable.ErrDuplicateKey
				}
			}
			rw.val.Key = *fields.Key
		}
		if fields.Value != nil {
			rw.val.Value = *fields.Value
		}
		rw.val.UpdatedAt = time.Now().UTC()
		st.vars[id] = rw
		out = rw.val
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *varRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.vars[id]; !ok {
			return variable.ErrVariableNotFound
		}
		delete(st.vars, id)
		return nil
	})
}

func (r *varRepo) DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(st *state) error {
		for id, rw := range st.vars {
			if rw.val.ApplicationID == applicationID {
				delete(st.vars, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
