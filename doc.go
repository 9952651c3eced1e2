// Package workers provides a coordinated parallel scan framework over a
// MongoDB collection: a fleet of independent worker processes partitions
// a key space into units and processes every document in it exactly
// once, modulo crash recovery.
//
// Workers coordinate through a single "work table" record in MongoDB
// rather than an external scheduler: a short-lived advisory lock guards
// reads and writes to the unit list, and a unit's own timestamp is the
// liveness signal a peer uses to reclaim it if its owner disappears.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/drmirror/workers"
//
//	cfg := workers.DefaultConfig()
//	cfg.DatabaseName = "mydb"
//	cfg.CollectionName = "documents"
//	cfg.FieldName = "_id"
//
//	hooks := &workers.Hooks{
//	    Process: func(ctx context.Context, doc []byte) error {
//	        return handle(doc)
//	    },
//	}
//
//	store := store.NewMongo(workCollection, dataCollection, cfg.FieldName)
//	w, err := workers.NewWorker(cfg, store, workers.WithHooks(hooks))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	w.Wait()
//
// # Key Features
//
//   - No external scheduler: coordination lives entirely in the data
//     store, behind the StoreAdapter interface.
//   - Crash-only recovery: a worker that dies mid-unit is indistinguishable
//     from one that was cancelled; a peer reclaims the unit once its
//     heartbeat goes stale.
//   - Pluggable range partitioning: a full sampling pass or, when the
//     store supports it, a statistics-based split.
//
// # Architecture
//
// A worker loops:
//
//	acquire lease -> pick unit -> release lease -> process documents, heartbeating
//	-> acquire lease -> mark unit finished, pick next -> release lease -> repeat
//
// until it picks nothing, at which point its Wait() returns. Any worker
// in the fleet may reclaim a stale unit left behind by a crashed peer.
//
// See test/integration/mongo_scan_test.go for complete wiring against a
// real mongod.
package workers
