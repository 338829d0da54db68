package store

import "context"

// Begin raises the transaction depth; only the 0→1 transition issues a
// physical BEGIN. Every Begin must be paired with exactly one Commit or
// Rollback. The caller must hold the store lock for the whole span.
func (s *Store) Begin(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotOpen
	}

	s.txDepth++
	if s.txDepth == 1 {
		stmt, err := s.Stmt(ctx, SlotBegin, "BEGIN;")
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			s.log.Error().Err(err).Msg("cannot begin transaction")
			return err
		}
	}
	return nil
}

// Commit lowers the transaction depth; only the 1→0 transition issues a
// physical COMMIT. At depth 0 it is a no-op: some call sites commit
// without tracking whether they opened the transaction.
// The caller must hold the store lock.
func (s *Store) Commit(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotOpen
	}

	if s.txDepth >= 1 {
		if s.txDepth == 1 {
			stmt, err := s.Stmt(ctx, SlotCommit, "COMMIT;")
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx); err != nil {
				s.log.Error().Err(err).Msg("cannot commit transaction")
				s.txDepth--
				return err
			}
		}
		s.txDepth--
	}
	return nil
}

// Rollback is Commit's counterpart: the 1→0 transition issues a physical
// ROLLBACK, discarding everything since the outermost Begin. A no-op at
// depth 0. The caller must hold the store lock.
func (s *Store) Rollback(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotOpen
	}

	if s.txDepth >= 1 {
		if s.txDepth == 1 {
			stmt, err := s.Stmt(ctx, SlotRollback, "ROLLBACK;")
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx); err != nil {
				s.log.Error().Err(err).Msg("cannot rollback transaction")
				s.txDepth--
				return err
			}
		}
		s.txDepth--
	}
	return nil
}
