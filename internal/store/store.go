// Package store provides the SQLite-backed record store. Every collection is
// a table of JSON documents keyed by an auto-increment id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/microerp/internal/store/migrations"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists collections in one SQLite file.
type Store struct {
	ops
	db   *sql.DB
	path string
	log  zerolog.Logger
	hub  *hub
}

// PathFor returns the database file for a store name inside dir.
func PathFor(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("store name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid store name %q", name)
	}
	return filepath.Join(dir, name+".db"), nil
}

// Open opens (creating if needed) the SQLite store at path and applies
// embedded migrations.
func Open(ctx context.Context, path string, log zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", cleanPath+"?_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writers and keeps a transaction's reads on
	// the transaction's connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	applied, err := applyMigrations(ctx, db, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log = log.With().Str("store", cleanPath).Logger()
	if applied > 0 {
		log.Debug().Int("applied", applied).Msg("migrations applied")
	}

	s := &Store{db: db, path: cleanPath, log: log, hub: newHub(log)}
	s.ops = ops{q: db, emit: s.hub.publish}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the number of applied migrations.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+migrationTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return n, nil
}

// Tx is a store transaction. It offers the same record operations as Store.
type Tx struct {
	ops
}

// InTx runs fn inside one transaction. If fn returns an error, or panics,
// nothing fn wrote is kept. Change notifications are published only after
// a successful commit.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	var pending []Change
	tx := &Tx{ops: ops{q: sqlTx, emit: func(c Change) { pending = append(pending, c) }}}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("rollback failed")
		} else {
			s.log.Debug().Err(err).Msg("transaction rolled back")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	for _, c := range pending {
		s.hub.publish(c)
	}
	return nil
}

// Subscribe returns a channel receiving committed changes to c, and a
// cancel func that closes it. Notifications never block writers: when the
// buffer is full the change is dropped and logged.
func (s *Store) Subscribe(c Collection, buffer int) (<-chan Change, func()) {
	return s.hub.subscribe(c, buffer)
}

// Watch registers fn to receive every committed change to any collection,
// in commit order. fn runs synchronously on the writing goroutine, so it
// must be quick and must not call back into the store. Unlike Subscribe,
// nothing is ever dropped. The returned func unregisters fn.
func (s *Store) Watch(fn func(Change)) func() {
	return s.hub.watch(fn)
}

// Close closes every subscription and the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.hub.close()
	return s.db.Close()
}
