// SPDX-License-Identifier: MIT
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(statementFailuresTotal)
	IncStatementFailure()
	require.Equal(t, before+1, testutil.ToFloat64(statementFailuresTotal))

	busyBefore := testutil.ToFloat64(busyTotal)
	IncBusy()
	require.Equal(t, busyBefore+1, testutil.ToFloat64(busyTotal))

	IncMigrationStep(40)
	require.Equal(t, float64(40), testutil.ToFloat64(schemaVersion))
}

func TestLockObserver(t *testing.T) {
	// Histogram observation must not panic and must accept any site.
	LockObserver{}.LockWait("store.go:42", 3*time.Millisecond)
	LockObserver{}.LockWait("", 0)
}
