package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/repositories/tokens"
	"github.com/dmitrijs2005/gophauth/internal/repositories/users"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore is a Store over database/sql. The same value type is used for the
// transactional gateway handed to WithinTx callbacks.
type SQLStore struct {
	db      *sql.DB
	q       dbx.DBTX
	rm      repomanager.RepositoryManager
	backend string
	inTx    bool
}

func NewSQLStore(db *sql.DB, rm repomanager.RepositoryManager, backend string) *SQLStore {
	return &SQLStore{db: db, q: db, rm: rm, backend: backend}
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return NewSQLStore(db, repomanager.NewPostgresRepositoryManager(), BackendPostgres), nil
}

// OpenSQLite opens (creating if needed) an SQLite database at path, or an
// in-memory database when path is ":memory:". The pool is limited to one
// connection so writes are serialized in-process.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	pragmas := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	dsn := path
	if path != ":memory:" {
		abs, err := filex.EnsureParentDir(path)
		if err != nil {
			return nil, err
		}
		dsn = abs
		pragmas += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return NewSQLStore(db, repomanager.NewSQLiteRepositoryManager(), BackendSQLite), nil
}

// Open picks a backend by name. dsn is a PostgreSQL DSN or an SQLite path and
// is ignored for the memory backend.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	var (
		s   *SQLStore
		err error
	)

	switch backend {
	case BackendPostgres:
		s, err = OpenPostgres(ctx, dsn)
	case BackendSQLite:
		s, err = OpenSQLite(ctx, dsn)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Users() users.Repository       { return s.rm.Users(s.q) }
func (s *SQLStore) Sessions() sessions.Repository { return s.rm.Sessions(s.q) }
func (s *SQLStore) Tokens() tokens.Repository     { return s.rm.Tokens(s.q) }

func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, g Gateway) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	return dbx.WithTx(ctx, s.db, s.rm.TxOptions(), func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLStore{db: s.db, q: tx, rm: s.rm, backend: s.backend, inTx: true})
	})
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.rm.RunMigrations(ctx, s.db); err != nil {
		return fmt.Errorf("migrate %s: %w", s.backend, err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Backend() string { return s.backend }

// DB exposes the underlying handle, e.g. for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }
