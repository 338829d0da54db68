package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bpiddubnyi/deltachat-core/internal/log"
	"github.com/bpiddubnyi/deltachat-core/internal/metrics"
)

// Slot identifies one precompiled statement. A slot is bound to exactly
// one query string for the lifetime of the process; passing a different
// query for an already-prepared slot is a caller bug.
type Slot int

const (
	SlotConfigSelect Slot = iota
	SlotConfigInsert
	SlotConfigUpdate
	SlotConfigDelete

	SlotBegin
	SlotCommit
	SlotRollback

	SlotPeerstateSelect
	SlotPeerstateUpdateFingerprints

	slotCount // keep last
)

// Stmt returns the compiled statement for slot, preparing it on first
// use. The query string is only consulted on that first use and must be
// identical on every later call for the same slot.
//
// The caller must hold the store lock for the whole window in which the
// returned statement is used.
func (s *Store) Stmt(ctx context.Context, slot Slot, query string) (*sql.Stmt, error) {
	if slot < 0 || slot >= slotCount {
		return nil, fmt.Errorf("%w: statement slot %d out of range", ErrInvalidArgument, slot)
	}
	if s.conn == nil {
		return nil, ErrNotOpen
	}

	if stmt := s.stmts[slot]; stmt != nil {
		// Already compiled; database/sql rebinds parameters on every
		// execution, so reuse needs no explicit reset.
		return stmt, nil
	}

	if query == "" {
		return nil, fmt.Errorf("%w: slot %d used before first-use preparation", ErrInvalidArgument, slot)
	}

	stmt, err := s.conn.PrepareContext(ctx, query)
	if err != nil {
		metrics.IncStatementFailure()
		s.log.Error().Err(err).Str(log.FieldQuery, query).Msg("preparing statement failed")
		return nil, fmt.Errorf("%w: %q: %v", ErrPrepareFailed, query, err)
	}

	s.stmts[slot] = stmt
	return stmt, nil
}

// ResetAll returns every occupied slot to its unprepared state; the next
// use of a slot compiles its query again. Close calls it to finalize all
// statements ahead of the physical handle. The caller must hold the
// store lock.
func (s *Store) ResetAll() {
	for i := range s.stmts {
		if s.stmts[i] != nil {
			_ = s.stmts[i].Close()
			s.stmts[i] = nil
		}
	}
}
