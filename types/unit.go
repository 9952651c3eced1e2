package types

import "time"

// UnitStatus is the lifecycle state of a single unit of work.
type UnitStatus string

const (
	// StatusOpen means the unit has not been claimed, or was returned to the
	// pool after a cleanup.
	StatusOpen UnitStatus = "open"
	// StatusProcessing means a worker owns the unit and is actively scanning it.
	StatusProcessing UnitStatus = "processing"
	// StatusCleanup means a worker is running the Cleanup hook for a unit
	// abandoned by a stale owner; the unit returns to open afterwards.
	StatusCleanup UnitStatus = "cleanup"
	// StatusCompleted means the unit has been fully scanned and will not be
	// reprocessed.
	StatusCompleted UnitStatus = "completed"
)

// Unit is one range of the key space and its current ownership state.
type Unit struct {
	Range  `bson:",inline"`
	Status UnitStatus `bson:"status"`
	// Owner is the id of the worker currently responsible for this unit.
	// Empty when the unit is open or completed.
	Owner string `bson:"owner,omitempty"`
	// TS is the timestamp of the unit's last state change or heartbeat,
	// used to detect stale processing/cleanup units.
	TS time.Time `bson:"ts"`
}

// IsStale reports whether a processing or cleanup unit has gone silent for
// longer than maxAge, as measured against now.
func (u Unit) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(u.TS) > maxAge
}
