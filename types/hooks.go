package types

import "context"

// Hooks lets a caller observe and participate in a worker's processing
// lifecycle. Every field is optional except Process, which is how the
// caller actually does something with each scanned document.
//
// Hooks run synchronously on the worker's single processing goroutine:
// a slow hook delays heartbeats and, in turn, risks the unit being
// declared stale and reclaimed by a peer.
type Hooks struct {
	// Process is called once per document found in the current unit's
	// range, in ascending field order. It is the only required hook.
	Process func(ctx context.Context, doc []byte) error

	// StartProcessing is called once, at the start of the processing
	// goroutine, after Start has claimed the first unit. It is not called
	// when Start finds no unit to claim.
	StartProcessing func(ctx context.Context) error

	// StartUnit is called before the worker scans the first document of
	// a newly claimed unit (r.Lower/r.Upper describe the unit's range).
	StartUnit func(ctx context.Context, r Range) error

	// FinishUnit is called after the last document of a unit has been
	// processed, before the unit is marked completed.
	FinishUnit func(ctx context.Context, r Range) error

	// Cleanup is called instead of Process/FinishUnit when this worker
	// claimed a unit left behind by a fired peer. It should make whatever
	// state Process left behind safe to redo from scratch.
	Cleanup func(ctx context.Context, r Range) error

	// Fired is called when a heartbeat discovers this worker's unit was
	// reassigned to someone else. The worker loop exits after this
	// returns; it should not attempt further writes to the unit.
	Fired func(ctx context.Context, r Range) error

	// FinishProcessing is called once the processing loop finds no open or
	// stale units left to claim. It is not called when Start finds no unit
	// to claim.
	FinishProcessing func(ctx context.Context) error
}
