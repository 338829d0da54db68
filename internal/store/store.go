package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bpiddubnyi/deltachat-core/internal/log"
	"github.com/bpiddubnyi/deltachat-core/internal/metrics"
	sqlitecfg "github.com/bpiddubnyi/deltachat-core/internal/persistence/sqlite"
)

// Mode selects how Open accesses the database file.
type Mode int

const (
	// ReadWrite opens the file for writing, creating and migrating the
	// schema as needed.
	ReadWrite Mode = iota
	// ReadOnly opens an existing file without touching the schema.
	ReadOnly
)

// PeerstateMigrator recomputes the derived trust fingerprints of one peer
// address. It is consumed by a single migration step; per-address
// failures skip the address, they never abort the migration.
//
// Implementations run while the store lock is already held.
type PeerstateMigrator interface {
	RecalcFingerprint(ctx context.Context, s *Store, addr string) error
}

// Options configures a Store. The zero value is usable.
type Options struct {
	// BusyTimeout bounds how long a write waits for another writer
	// before surfacing ErrBusy. Defaults to 10 seconds.
	BusyTimeout time.Duration

	// Observer receives lock wait instrumentation. Nil disables it.
	Observer LockObserver

	// Peerstates supplies the trust-state recomputation used by one
	// migration step. Nil skips that step's post-migration pass.
	Peerstates PeerstateMigrator
}

// Store wraps one serialized SQLite connection together with its
// statement slots, transaction depth and the mutex protecting them all.
type Store struct {
	mu   sync.Mutex
	obs  LockObserver
	log  zerolog.Logger
	open atomic.Bool

	busyTimeout time.Duration
	peers       PeerstateMigrator

	// Connection state below is owned by whoever holds mu.
	path    string
	db      *sql.DB
	conn    *sql.Conn
	stmts   [slotCount]*sql.Stmt
	txDepth int
}

// New returns an unopened Store.
func New(opts Options) *Store {
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{
		obs:         obs,
		log:         log.WithComponent("store"),
		busyTimeout: timeout,
		peers:       opts.Peerstates,
	}
}

// Lock acquires the store mutex. Every multi-statement sequence against
// the connection must run between Lock and Unlock; the engine only makes
// single statements atomic.
func (s *Store) Lock() {
	start := time.Now()
	s.mu.Lock()
	if _, ok := s.obs.(nopObserver); !ok {
		s.obs.LockWait(callSite(), time.Since(start))
	}
}

// Unlock releases the store mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}

// callSite names the caller of Lock for contention diagnostics.
func callSite() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// IsOpen reports whether the store currently owns an open connection.
func (s *Store) IsOpen() bool {
	return s.open.Load()
}

// Open opens or creates the database file at path. In ReadWrite mode it
// also creates the baseline schema on a fresh file and brings an existing
// file to the current schema version. A store left by a failed Open is
// fully closed, never half-open.
func (s *Store) Open(ctx context.Context, path string, mode Mode) error {
	s.Lock()
	defer s.Unlock()

	if s.conn != nil {
		s.log.Error().Str(log.FieldPath, path).Msg("cannot open, database already opened")
		return ErrAlreadyOpen
	}

	db, err := sqlitecfg.Open(path, sqlitecfg.Config{
		BusyTimeout: s.busyTimeout,
		ReadOnly:    mode == ReadOnly,
	})
	if err != nil {
		s.log.Error().Err(err).Str(log.FieldPath, path).Msg("cannot open database")
		return fmt.Errorf("%w: %q: %v", ErrOpenFailed, path, err)
	}

	// Pin the single physical connection: statement slots and the
	// transaction counter only make sense against one connection.
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %q: %v", ErrOpenFailed, path, err)
	}

	s.path = path
	s.db = db
	s.conn = conn

	if err := s.checkThreading(ctx); err != nil {
		s.closeLocked()
		return err
	}

	if mode == ReadWrite {
		if err := s.migrateLocked(ctx); err != nil {
			s.closeLocked()
			return err
		}
	}

	s.open.Store(true)
	s.log.Info().Str(log.FieldPath, path).Msg("database opened")
	return nil
}

// checkThreading rejects engines built without full internal
// serialization; the store's locking model depends on it.
func (s *Store) checkThreading(ctx context.Context) error {
	rows, err := s.conn.QueryContext(ctx, "PRAGMA compile_options;")
	if err != nil {
		// Engines that hide compile options are left alone.
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		var opt string
		if err := rows.Scan(&opt); err != nil {
			return nil
		}
		if opt == "THREADSAFE=0" {
			s.log.Error().Msg("sqlite compiled thread-unsafe; this is not supported")
			return ErrThreadingUnsupported
		}
	}
	return nil
}

// Close finalizes all prepared statements and closes the physical handle.
// It is idempotent; closing an unopened store is a no-op.
func (s *Store) Close() {
	s.Lock()
	defer s.Unlock()
	s.closeLocked()
}

func (s *Store) closeLocked() {
	if s.conn != nil {
		s.ResetAll()
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	s.txDepth = 0
	s.open.Store(false)
	// Logged even when no real closing took place; that catches pairing
	// bugs in callers.
	s.log.Info().Str(log.FieldPath, s.path).Msg("database closed")
}

// Exec compiles and runs a single one-shot statement. Failures are logged
// with the offending query text and surfaced to the caller; the store
// itself never retries. The caller must hold the store lock.
func (s *Store) Exec(ctx context.Context, query string) error {
	if s.conn == nil {
		return ErrNotOpen
	}
	if _, err := s.conn.ExecContext(ctx, query); err != nil {
		metrics.IncStatementFailure()
		if IsBusy(err) {
			metrics.IncBusy()
		}
		s.log.Error().Err(err).Str(log.FieldQuery, query).Msg("cannot execute statement")
		return fmt.Errorf("store: exec %q: %w", query, err)
	}
	return nil
}

// tableExists probes the schema catalog for a table name. The caller must
// hold the store lock.
func (s *Store) tableExists(ctx context.Context, name string) bool {
	if s.conn == nil {
		return false
	}
	var cnt int
	err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?;", name).Scan(&cnt)
	return err == nil && cnt > 0
}
