// Package memstore keeps every repository in process memory. It backs the
// server when no DATABASE_URL is configured and is used throughout the tests.
//
// Writes are serialized. WithinTx snapshots the whole store and restores it
// when fn fails, so a failed flow leaves no partial state. Audit appends made
// outside the failed transaction survive the restore. Reads inside a
// transaction see its uncommitted writes; reads outside wait for it to finish.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/team"
	"github.com/teamvault/teamvault/internal/token"
	"github.com/teamvault/teamvault/internal/variable"
)

type txKey struct{}

// txState tracks what a running transaction appended to the audit log.
type txState struct {
	audit map[uuid.UUID]struct{}
}

type state struct {
	seq       int64
	teams     map[uuid.UUID]row[team.Team]
	users     map[uuid.UUID]row[auth.User]
	apps      map[uuid.UUID]row[application.Application]
	vars      map[uuid.UUID]row[variable.Variable]
	tokens    map[string]row[token.APIToken]
	auditLogs []audit.Entry
}

// row pairs a record with its insertion order.
type row[T any] struct {
	val T
	seq int64
}

// Store holds all in-memory tables.
type Store struct {
	// txMu is held exclusively by transactions and plain writes, shared by
	// plain reads.
	txMu sync.RWMutex
	mu   sync.RWMutex
	st   state
}

// New creates an empty Store.
func New() *Store {
	return &Store{st: state{
		teams:  map[uuid.UUID]row[team.Team]{},
		users:  map[uuid.UUID]row[auth.User]{},
		apps:   map[uuid.UUID]row[application.Application]{},
		vars:   map[uuid.UUID]row[variable.Variable]{},
		tokens: map[string]row[token.APIToken]{},
	}}
}

// WithinTx runs fn as one unit. Nested calls join the outer unit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()

	tx := &txState{audit: map[uuid.UUID]struct{}{}}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		s.mu.Lock()
		kept := make([]audit.Entry, 0, len(s.st.auditLogs))
		for _, e := range s.st.auditLogs {
			if _, ours := tx.audit[e.ID]; !ours {
				kept = append(kept, e)
			}
		}
		s.st = snapshot
		s.st.auditLogs = kept
		s.mu.Unlock()
		return err
	}
	return nil
}

// Teams returns the team.Repository view of the store.
func (s *Store) Teams() team.Repository { return &teamRepo{s} }

// Users returns the auth.UserRepository view of the store.
func (s *Store) Users() auth.UserRepository { return &userRepo{s} }

// Applications returns the application.Repository view of the store.
func (s *Store) Applications() application.Repository { return &appRepo{s} }

// Variables returns the variable.Repository view of the store.
func (s *Store) Variables() variable.Repository { return &varRepo{s} }

// Tokens returns the token.Repository view of the store.
func (s *Store) Tokens() token.Repository { return &tokenRepo{s} }

// Audit returns the audit.Repository view of the store.
func (s *Store) Audit() audit.Repository { return &auditRepo{s} }

func txFrom(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	return tx
}

func inTx(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// write runs fn under the write lock. Outside a transaction it also waits for
// any running transaction so a rollback cannot discard the write.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.st)
}

// read runs fn under the read lock. Outside a transaction it waits for any
// running transaction so uncommitted writes are never observed.
func (s *Store) read(ctx context.Context, fn func(st *state)) {
	if !inTx(ctx) {
		s.txMu.RLock()
		defer s.txMu.RUnlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.st)
}

func (st *state) next() int64 {
	st.seq++
	return st.seq
}

func (st state) clone() state {
	c := state{
		seq:       st.seq,
		teams:     maps.Clone(st.teams),
		users:     maps.Clone(st.users),
		apps:      maps.Clone(st.apps),
		vars:      maps.Clone(st.vars),
		tokens:    maps.Clone(st.tokens),
		auditLogs: make([]audit.Entry, len(st.auditLogs)),
	}
	copy(c.auditLogs, st.auditLogs)
	return c
}
