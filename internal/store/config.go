package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/bpiddubnyi/deltachat-core/internal/log"
)

// versionKey is the reserved config key holding the schema version.
const versionKey = "dbversion"

// SetConfig stores value under key, replacing any previous value.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	s.Lock()
	defer s.Unlock()
	return s.setConfigLocked(ctx, key, &value)
}

// UnsetConfig deletes the row for key. Deleting an absent key succeeds.
func (s *Store) UnsetConfig(ctx context.Context, key string) error {
	s.Lock()
	defer s.Unlock()
	return s.setConfigLocked(ctx, key, nil)
}

// Config returns the value stored under key, or def when the store is
// closed, the key is empty or no row matches.
func (s *Store) Config(ctx context.Context, key, def string) string {
	s.Lock()
	defer s.Unlock()
	if v, ok := s.configLocked(ctx, key); ok {
		return v
	}
	return def
}

// ConfigInt is Config with a decimal integer codec: unparsable or absent
// stored text yields def, never an error.
func (s *Store) ConfigInt(ctx context.Context, key string, def int64) int64 {
	s.Lock()
	defer s.Unlock()
	return s.configIntLocked(ctx, key, def)
}

// SetConfigInt stores value under key in its canonical decimal form.
func (s *Store) SetConfigInt(ctx context.Context, key string, value int64) error {
	s.Lock()
	defer s.Unlock()
	return s.setConfigIntLocked(ctx, key, value)
}

func (s *Store) setConfigLocked(ctx context.Context, key string, value *string) error {
	if key == "" {
		s.log.Error().Msg("set config: bad parameter")
		return ErrInvalidArgument
	}
	if s.conn == nil {
		s.log.Error().Str(log.FieldConfigKey, key).Msg("set config: database not ready")
		return ErrNotOpen
	}

	var err error
	if value != nil {
		// Insert or update, decided by an existence probe so the three
		// paths share their precompiled statements.
		sel, serr := s.Stmt(ctx, SlotConfigSelect, "SELECT value FROM config WHERE keyname=?;")
		if serr != nil {
			return serr
		}
		var existing string
		switch serr = sel.QueryRowContext(ctx, key).Scan(&existing); {
		case errors.Is(serr, sql.ErrNoRows):
			var ins *sql.Stmt
			if ins, err = s.Stmt(ctx, SlotConfigInsert, "INSERT INTO config (keyname, value) VALUES (?, ?);"); err == nil {
				_, err = ins.ExecContext(ctx, key, *value)
			}
		case serr == nil:
			var upd *sql.Stmt
			if upd, err = s.Stmt(ctx, SlotConfigUpdate, "UPDATE config SET value=? WHERE keyname=?;"); err == nil {
				_, err = upd.ExecContext(ctx, *value, key)
			}
		default:
			s.log.Error().Err(serr).Str(log.FieldConfigKey, key).Msg("set config: cannot read value")
			return fmt.Errorf("%w: %v", ErrWriteFailed, serr)
		}
	} else {
		var del *sql.Stmt
		if del, err = s.Stmt(ctx, SlotConfigDelete, "DELETE FROM config WHERE keyname=?;"); err == nil {
			_, err = del.ExecContext(ctx, key)
		}
	}

	if err != nil {
		s.log.Error().Err(err).Str(log.FieldConfigKey, key).Msg("set config: cannot change value")
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// configLocked returns the stored value verbatim and whether a row
// matched. The caller must hold the store lock.
func (s *Store) configLocked(ctx context.Context, key string) (string, bool) {
	if s.conn == nil || key == "" {
		return "", false
	}
	sel, err := s.Stmt(ctx, SlotConfigSelect, "SELECT value FROM config WHERE keyname=?;")
	if err != nil {
		return "", false
	}
	var value string
	if err := sel.QueryRowContext(ctx, key).Scan(&value); err != nil {
		return "", false
	}
	return value, true
}

func (s *Store) configIntLocked(ctx context.Context, key string, def int64) int64 {
	str, ok := s.configLocked(ctx, key)
	if !ok {
		return def
	}
	// Non-numeric stored text counts as "no value", never an error.
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func (s *Store) setConfigIntLocked(ctx context.Context, key string, value int64) error {
	return s.setConfigLocked(ctx, key, ptr(strconv.FormatInt(value, 10)))
}

func ptr(s string) *string { return &s }
