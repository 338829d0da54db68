package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStmtPreparesOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	const q = "SELECT value FROM config WHERE keyname=?;"
	first, err := s.Stmt(ctx, SlotConfigSelect, q)
	require.NoError(t, err)

	second, err := s.Stmt(ctx, SlotConfigSelect, q)
	require.NoError(t, err)
	require.Same(t, first, second, "a slot holds one compiled statement")

	// After first use the query string is not consulted anymore.
	third, err := s.Stmt(ctx, SlotConfigSelect, "")
	require.NoError(t, err)
	require.Same(t, first, third)
}

func TestStmtRequiresQueryOnFirstUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	_, err := s.Stmt(ctx, SlotPeerstateSelect, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStmtPrepareFailed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	_, err := s.Stmt(ctx, SlotPeerstateSelect, "SELECT nonsense FROM nowhere;")
	require.ErrorIs(t, err, ErrPrepareFailed)

	// The slot stays unprepared and can be compiled with a valid query.
	stmt, err := s.Stmt(ctx, SlotPeerstateSelect, "SELECT COUNT(*) FROM acpeerstates;")
	require.NoError(t, err)
	require.NotNil(t, stmt)
}

func TestStmtSlotOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	_, err := s.Stmt(ctx, Slot(-1), "SELECT 1;")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.Stmt(ctx, slotCount, "SELECT 1;")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// Reusing a slot must not carry anything over from the previous use:
// fresh parameters fully determine the result.
func TestStmtReuseBindsFreshParameters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	require.NoError(t, s.SetConfig(ctx, "k1", "first"))
	require.NoError(t, s.SetConfig(ctx, "k2", "second"))

	s.Lock()
	defer s.Unlock()

	stmt, err := s.Stmt(ctx, SlotConfigSelect, "SELECT value FROM config WHERE keyname=?;")
	require.NoError(t, err)

	var v string
	require.NoError(t, stmt.QueryRowContext(ctx, "k1").Scan(&v))
	require.Equal(t, "first", v)

	reused, err := s.Stmt(ctx, SlotConfigSelect, "")
	require.NoError(t, err)
	require.NoError(t, reused.QueryRowContext(ctx, "k2").Scan(&v))
	require.Equal(t, "second", v)
}

func TestResetAllRecompiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	const q = "SELECT value FROM config WHERE keyname=?;"
	first, err := s.Stmt(ctx, SlotConfigSelect, q)
	require.NoError(t, err)

	s.ResetAll()

	// The slot is unprepared again; first use needs the query string.
	_, err = s.Stmt(ctx, SlotConfigSelect, "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	again, err := s.Stmt(ctx, SlotConfigSelect, q)
	require.NoError(t, err)
	require.NotSame(t, first, again)

	var v string
	require.NoError(t, again.QueryRowContext(ctx, versionKey).Scan(&v))
	require.NotEmpty(t, v)
}
