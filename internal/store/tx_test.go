package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func countContacts(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	err := s.conn.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM contacts;").Scan(&n)
	require.NoError(t, err)
	return n
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	before := countContacts(t, s)
	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Exec(ctx, "INSERT INTO contacts (name, addr) VALUES ('carol', 'carol@example.org');"))
	require.NoError(t, s.Commit(ctx))

	require.Equal(t, before+1, countContacts(t, s))
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	before := countContacts(t, s)
	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Exec(ctx, "INSERT INTO contacts (name, addr) VALUES ('carol', 'carol@example.org');"))
	require.NoError(t, s.Rollback(ctx))

	require.Equal(t, before, countContacts(t, s))
}

// Nested begins map onto one physical transaction: the inner commit must
// not make anything durable while the outer rollback discards it all.
func TestNestedTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	before := countContacts(t, s)

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Exec(ctx, "INSERT INTO contacts (name, addr) VALUES ('dave', 'dave@example.org');"))

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Exec(ctx, "INSERT INTO contacts (name, addr) VALUES ('erin', 'erin@example.org');"))
	require.NoError(t, s.Commit(ctx)) // inner: depth 2→1, no physical COMMIT

	require.NoError(t, s.Rollback(ctx)) // outer: depth 1→0, physical ROLLBACK

	require.Equal(t, before, countContacts(t, s), "all effects since the outer begin must be gone")
	require.Equal(t, 0, s.txDepth)
}

func TestCommitAtDepthZero(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	s.Lock()
	defer s.Unlock()

	// Commits without a matching begin are tolerated.
	require.NoError(t, s.Commit(ctx))
	require.NoError(t, s.Rollback(ctx))
	require.Equal(t, 0, s.txDepth)

	// And a regular transaction still works afterwards.
	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Commit(ctx))
}
