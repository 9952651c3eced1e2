package types

import "time"

// MetricsCollector defines operational metrics the worker lifecycle emits.
//
// Implementations must be non-blocking and safe for concurrent use; all
// methods are called from the worker's hot path.
type MetricsCollector interface {
	// RecordLeaseWait records how long a call spent waiting to acquire the
	// work table lease, including any stuck-lock recoveries it witnessed.
	RecordLeaseWait(d time.Duration)

	// RecordStuckLockCleared records that this worker cleared a lock left
	// behind by a crashed lease holder.
	RecordStuckLockCleared()

	// RecordUnitPicked records a unit being claimed, tagged by whether it
	// was a fresh open unit or a stale one reclaimed for cleanup.
	RecordUnitPicked(cleanup bool)

	// RecordUnitCompleted records a unit reaching its terminal state for
	// this pass, tagged by the same cleanup distinction and how long the
	// worker held it.
	RecordUnitCompleted(cleanup bool, duration time.Duration)

	// RecordDocumentProcessed increments the count of documents passed to
	// the Process hook.
	RecordDocumentProcessed()

	// RecordFired records this worker losing ownership of its current unit
	// to a peer.
	RecordFired()

	// RecordHeartbeat records a heartbeat write attempt and its outcome.
	RecordHeartbeat(success bool)
}
