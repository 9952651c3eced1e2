// Package picker implements the two-pass unit selection a worker performs
// while it holds the work table lease: first look for stale work left
// behind by a dead peer, then fall back to a fresh open unit.
package picker

import (
	"time"

	"github.com/drmirror/workers/types"
)

// Config bounds how long a unit may go without a heartbeat before it is
// considered abandoned.
type Config struct {
	MaxMissedHeartbeats int
	HeartbeatInterval   time.Duration
}

func (c Config) staleAfter() time.Duration {
	return time.Duration(c.MaxMissedHeartbeats) * c.HeartbeatInterval
}

// Pick mutates table in place, claiming one unit for self, and reports
// its index and whether it was claimed for cleanup. It returns ok=false
// if no unit was available.
//
// Pass one looks for processing or cleanup units whose timestamp is
// older than MaxMissedHeartbeats heartbeat intervals. Both statuses are
// considered, so a cleanup left unfinished by a worker that itself died
// is reclaimed rather than left stuck forever. Pass two looks for the
// first open unit.
func Pick(table *types.WorkTable, self string, now time.Time, cfg Config) (idx int, cleanup bool, ok bool) {
	stale := cfg.staleAfter()

	for i := range table.Units {
		u := &table.Units[i]
		if (u.Status == types.StatusProcessing || u.Status == types.StatusCleanup) && u.IsStale(now, stale) {
			u.Status = types.StatusCleanup
			u.Owner = self
			u.TS = now

			return i, true, true
		}
	}

	for i := range table.Units {
		u := &table.Units[i]
		if u.Status == types.StatusOpen {
			u.Status = types.StatusProcessing
			u.Owner = self
			u.TS = now

			return i, false, true
		}
	}

	return 0, false, false
}

// MarkComplete transitions the unit at idx to its post-processing state:
// completed if it was a normal pass, or back to open (ready to be picked
// up again) if it was a cleanup pass.
func MarkComplete(table *types.WorkTable, idx int, cleanup bool, now time.Time) {
	u := &table.Units[idx]
	u.Owner = ""
	u.TS = now
	if cleanup {
		u.Status = types.StatusOpen
	} else {
		u.Status = types.StatusCompleted
	}
}
