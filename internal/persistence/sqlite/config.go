package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// Config defines standard SQLite operational parameters.
type Config struct {
	BusyTimeout time.Duration
	ReadOnly    bool
}

// DefaultConfig returns the parameters every message store is opened with.
// The busy timeout lets a second writer wait for an in-flight one instead
// of failing immediately.
func DefaultConfig() Config {
	return Config{
		BusyTimeout: 10 * time.Second,
	}
}

// Open initializes a SQLite handle with mandatory PRAGMAs.
// The pool is pinned to a single connection: the message store serializes
// every call sequence behind one mutex, and statement/transaction state
// must stay on one physical connection.
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	// Construct DSN with mandatory PRAGMAs to ensure they apply to the
	// connection. modernc.org/sqlite supports _pragma in the DSN.
	// Format: file:path?_pragma=foo(bar)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", dbPath, cfg.BusyTimeout.Milliseconds())
	if cfg.ReadOnly {
		dsn += "&mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Connectivity check; also surfaces bad paths for read-only opens.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}
