// Package storage defines the gateway the authentication core talks to and
// its backends: PostgreSQL (networked), SQLite (embedded) and an in-memory
// reference store. All backends honor the same contract:
//
//   - user emails are unique (duplicates surface as common.ErrConflict);
//   - token and session hashes are unique;
//   - Tokens().MarkUsed succeeds for exactly one caller;
//   - WithinTx commits only when fn returns nil.
package storage

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/repositories/tokens"
	"github.com/dmitrijs2005/gophauth/internal/repositories/users"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Gateway exposes repositories bound to either the store itself or to an
// open transaction.
type Gateway interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Tokens() tokens.Repository
	// WithinTx runs fn atomically. The Gateway passed to fn must be used for
	// every operation that belongs to the transaction. Nested calls join the
	// outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, g Gateway) error) error
}

// Store is a Gateway that owns its resources.
type Store interface {
	Gateway
	Migrate(ctx context.Context) error
	Close() error
	Backend() string
}
