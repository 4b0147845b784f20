package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/token"
)

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Create(ctx context.Context, t *token.APIToken) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.users[t.UserID]; !ok {
			return fmt.Errorf("inserting api token: user %s: %w", t.UserID, errMissingReference)
		}
		if _, ok := st.tokens[t.Token]; ok {
			return fmt.Errorf("inserting api token: duplicate token")
		}
		t.CreatedAt = time.Now().UTC()
		t.Revoked = false
		st.tokens[t.Token] = row[token.APIToken]{val: *t, seq: st.next()}
		return nil
	})
}

func (r *tokenRepo) Get(ctx context.Context, raw string) (*token.APIToken, error) {
	var out *token.APIToken
	r.s.read(ctx, func(st *state) {
		if rw, ok := st.tokens[raw]; ok {
			t := rw.val
			out = &t
		}
	})
	if out == nil {
		return nil, token.ErrTokenNotFound
	}
	return out, nil
}

// Revoke flips the flag under the write lock, so a lookup that starts after
// Revoke returns always observes it.
func (r *tokenRepo) Revoke(ctx context.Context, raw string) (bool, error) {
	var changed bool
	err := r.s.write(ctx, func(st *state) error {
		rw, ok := st.tokens[raw]
		if !ok {
			return token.ErrTokenNotFound
		}
		changed = !rw.val.Revoked
		rw.val.Revoked = true
		st.tokens[raw] = rw
		return nil
	})
	return changed, err
}

func (r *tokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]token.APIToken, error) {
	var rows []row[token.APIToken]
	r.s.read(ctx, func(st *state) {
		for _, rw := range st.tokens {
			if rw.val.UserID == userID {
				rows = append(rows, rw)
			}
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]token.APIToken, len(rows))
	for i, rw := range rows {
		out[i] = rw.val
	}
	return out, nil
}
