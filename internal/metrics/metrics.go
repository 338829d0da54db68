// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dcc_db_lock_wait_seconds",
		Help:    "Time spent waiting for the database mutex",
		Buckets: []float64{.0001, .001, .01, .05, .1, .5, 1, 5},
	})

	migrationStepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dcc_db_migration_steps_total",
		Help: "Total number of schema migration steps applied",
	})

	statementFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dcc_db_statement_failures_total",
		Help: "Total number of failed statement preparations and executions",
	})

	busyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dcc_db_busy_total",
		Help: "Total number of statements that hit the busy timeout",
	})

	schemaVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dcc_db_schema_version",
		Help: "Schema version the store was migrated to (last open)",
	})
)

// IncMigrationStep records one applied migration step and the version it
// brought the store to.
func IncMigrationStep(version int64) {
	migrationStepsTotal.Inc()
	schemaVersion.Set(float64(version))
}

// IncStatementFailure records a failed prepare or execute.
func IncStatementFailure() {
	statementFailuresTotal.Inc()
}

// IncBusy records a statement that failed on the busy timeout.
func IncBusy() {
	busyTotal.Inc()
}

// LockObserver feeds database mutex wait times into Prometheus. It
// satisfies the store's observer hook.
type LockObserver struct{}

// LockWait records one mutex acquisition wait. The acquisition site is
// deliberately not a label; file/line cardinality does not belong in a
// histogram.
func (LockObserver) LockWait(_ string, wait time.Duration) {
	lockWaitSeconds.Observe(wait.Seconds())
}
