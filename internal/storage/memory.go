package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/repositories/tokens"
	"github.com/dmitrijs2005/gophauth/internal/repositories/users"
)

type memState struct {
	users       map[string]*models.User
	emails      map[string]string
	sessions    map[string]*models.Session
	tokens      map[string]*models.VerificationToken
	tokenHashes map[string]string
}

func newMemState() *memState {
	return &memState{
		users:       make(map[string]*models.User),
		emails:      make(map[string]string),
		sessions:    make(map[string]*models.Session),
		tokens:      make(map[string]*models.VerificationToken),
		tokenHashes: make(map[string]string),
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	for k, v := range st.users {
		c.users[k] = v.Clone()
	}
	for k, v := range st.emails {
		c.emails[k] = v
	}
	for k, v := range st.sessions {
		s := *v
		c.sessions[k] = &s
	}
	for k, v := range st.tokens {
		c.tokens[k] = v.Clone()
	}
	for k, v := range st.tokenHashes {
		c.tokenHashes[k] = v
	}
	return c
}

// MemoryStore keeps everything in process memory behind one mutex.
// Transactions hold the mutex for their whole duration and work on a copy
// that replaces the live state on commit.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) Users() users.Repository       { return &memUsers{v: memView{root: s}} }
func (s *MemoryStore) Sessions() sessions.Repository { return &memSessions{v: memView{root: s}} }
func (s *MemoryStore) Tokens() tokens.Repository     { return &memTokens{v: memView{root: s}} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, g Gateway) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &memTx{v: memView{root: s, tx: work}}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }
func (s *MemoryStore) Backend() string               { return BackendMemory }

// memTx is the gateway bound to an open memory transaction.
type memTx struct {
	v memView
}

func (t *memTx) Users() users.Repository       { return &memUsers{v: t.v} }
func (t *memTx) Sessions() sessions.Repository { return &memSessions{v: t.v} }
func (t *memTx) Tokens() tokens.Repository     { return &memTokens{v: t.v} }

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context, g Gateway) error) error {
	return fn(ctx, t)
}

type memView struct {
	root *MemoryStore
	tx   *memState
}

func (v memView) run(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.root.mu.Lock()
	defer v.root.mu.Unlock()
	return fn(v.root.state)
}

type memUsers struct{ v memView }

func (r *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.v.run(ctx, func(st *memState) error {
		if _, ok := st.emails[user.Email]; ok {
			return fmt.Errorf("%w: email %s", common.ErrConflict, user.Email)
		}
		if _, ok := st.users[user.ID]; ok {
			return fmt.Errorf("%w: user id %s", common.ErrConflict, user.ID)
		}
		st.users[user.ID] = user.Clone()
		st.emails[user.Email] = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.v.run(ctx, func(st *memState) error {
		id, ok := st.emails[email]
		if !ok {
			return common.ErrNotFound
		}
		out = st.users[id].Clone()
		return nil
	})
	return out, err
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	err := r.v.run(ctx, func(st *memState) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (r *memUsers) MarkEmailVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	var changed bool
	err := r.v.run(ctx, func(st *memState) error {
		u, ok := st.users[id]
		if !ok || u.EmailVerified {
			return nil
		}
		u.EmailVerified = true
		t := at
		u.EmailVerifiedAt = &t
		changed = true
		return nil
	})
	return changed, err
}

type memSessions struct{ v memView }

func (r *memSessions) Create(ctx context.Context, s *models.Session) error {
	return r.v.run(ctx, func(st *memState) error {
		if _, ok := st.sessions[s.TokenHash]; ok {
			return fmt.Errorf("%w: session hash", common.ErrConflict)
		}
		c := *s
		c.Token = ""
		st.sessions[s.TokenHash] = &c
		return nil
	})
}

func (r *memSessions) GetByTokenHash(ctx context.Context, hash string) (*models.Session, error) {
	var out *models.Session
	err := r.v.run(ctx, func(st *memState) error {
		s, ok := st.sessions[hash]
		if !ok {
			return common.ErrNotFound
		}
		c := *s
		out = &c
		return nil
	})
	return out, err
}

func (r *memSessions) DeleteByTokenHash(ctx context.Context, hash string) error {
	return r.v.run(ctx, func(st *memState) error {
		delete(st.sessions, hash)
		return nil
	})
}

func (r *memSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.v.run(ctx, func(st *memState) error {
		for k, s := range st.sessions {
			if s.Expired(now) {
				delete(st.sessions, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

type memTokens struct{ v memView }

func (r *memTokens) Create(ctx context.Context, t *models.VerificationToken) error {
	return r.v.run(ctx, func(st *memState) error {
		if _, ok := st.tokenHashes[t.TokenHash]; ok {
			return fmt.Errorf("%w: token hash", common.ErrConflict)
		}
		if _, ok := st.tokens[t.ID]; ok {
			return fmt.Errorf("%w: token id %s", common.ErrConflict, t.ID)
		}
		c := t.Clone()
		c.Used = false
		c.UsedAt = nil
		st.tokens[t.ID] = c
		st.tokenHashes[t.TokenHash] = t.ID
		return nil
	})
}

func (r *memTokens) GetByHash(ctx context.Context, hash string, purpose models.Purpose) (*models.VerificationToken, error) {
	var out *models.VerificationToken
	err := r.v.run(ctx, func(st *memState) error {
		id, ok := st.tokenHashes[hash]
		if !ok {
			return common.ErrNotFound
		}
		t := st.tokens[id]
		if t.Purpose != purpose {
			return common.ErrNotFound
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (r *memTokens) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	var won bool
	err := r.v.run(ctx, func(st *memState) error {
		t, ok := st.tokens[id]
		if !ok || t.Used {
			return nil
		}
		t.Used = true
		u := at
		t.UsedAt = &u
		won = true
		return nil
	})
	return won, err
}

func (r *memTokens) DeleteUnused(ctx context.Context, userID string, purpose models.Purpose) (int64, error) {
	var n int64
	err := r.v.run(ctx, func(st *memState) error {
		for id, t := range st.tokens {
			if t.UserID == userID && t.Purpose == purpose && !t.Used {
				delete(st.tokens, id)
				delete(st.tokenHashes, t.TokenHash)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.v.run(ctx, func(st *memState) error {
		for id, t := range st.tokens {
			if t.Expired(now) {
				delete(st.tokens, id)
				delete(st.tokenHashes, t.TokenHash)
				n++
			}
		}
		return nil
	})
	return n, err
}
