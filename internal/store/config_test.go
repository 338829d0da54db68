package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	require.NoError(t, s.SetConfig(ctx, "addr", "alice@example.org"))
	require.Equal(t, "alice@example.org", s.Config(ctx, "addr", "fallback"))

	// Overwrite in place.
	require.NoError(t, s.SetConfig(ctx, "addr", "bob@example.org"))
	require.Equal(t, "bob@example.org", s.Config(ctx, "addr", "fallback"))

	// Empty string is a value, not an absence.
	require.NoError(t, s.SetConfig(ctx, "selfstatus", ""))
	require.Equal(t, "", s.Config(ctx, "selfstatus", "fallback"))
}

func TestConfigUnset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	require.NoError(t, s.SetConfig(ctx, "draft", "hello"))
	require.NoError(t, s.UnsetConfig(ctx, "draft"))
	require.Equal(t, "fallback", s.Config(ctx, "draft", "fallback"))

	// Unsetting an absent key succeeds.
	require.NoError(t, s.UnsetConfig(ctx, "never_set"))
}

func TestConfigInt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	require.NoError(t, s.SetConfigInt(ctx, "e2ee_enabled", 42))
	require.EqualValues(t, 42, s.ConfigInt(ctx, "e2ee_enabled", 0))
	require.Equal(t, "42", s.Config(ctx, "e2ee_enabled", ""))

	require.NoError(t, s.SetConfigInt(ctx, "negative", -7))
	require.EqualValues(t, -7, s.ConfigInt(ctx, "negative", 0))

	// Non-numeric stored text counts as "no value".
	require.NoError(t, s.SetConfig(ctx, "garbled", "not a number"))
	require.EqualValues(t, 99, s.ConfigInt(ctx, "garbled", 99))

	// Absent key yields the default.
	require.EqualValues(t, 23, s.ConfigInt(ctx, "absent", 23))
}

func TestConfigEmptyKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{})

	require.ErrorIs(t, s.SetConfig(ctx, "", "value"), ErrInvalidArgument)
	require.Equal(t, "fallback", s.Config(ctx, "", "fallback"))
}

func TestConfigClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	require.ErrorIs(t, s.SetConfig(ctx, "addr", "alice@example.org"), ErrNotOpen)
	require.Equal(t, "fallback", s.Config(ctx, "addr", "fallback"))
	require.EqualValues(t, 5, s.ConfigInt(ctx, "addr", 5))
}
