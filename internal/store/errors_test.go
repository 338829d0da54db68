package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBusy(t *testing.T) {
	require.False(t, IsBusy(nil))
	require.False(t, IsBusy(errors.New("no such table: config")))

	require.True(t, IsBusy(ErrBusy))
	require.True(t, IsBusy(fmt.Errorf("exec: %w", ErrBusy)))
	// Driver diagnostics surface as plain error text.
	require.True(t, IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
}
