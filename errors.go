package workers

import (
	"errors"

	"github.com/drmirror/workers/types"
)

// Sentinel errors returned by a Worker and its supporting packages.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreRequired is returned when NewWorker is called without a
	// store adapter.
	ErrStoreRequired = errors.New("store adapter is required")

	// ErrProcessRequired is returned when NewWorker is called without a
	// Process hook.
	ErrProcessRequired = errors.New("Process hook is required")

	// ErrAlreadyStarted is returned when Start is called on a worker that
	// is already running.
	ErrAlreadyStarted = errors.New("worker already started")

	// ErrNotStarted is returned when Stop is called on a worker that
	// hasn't been started.
	ErrNotStarted = errors.New("worker not started")
)

// Re-exported from the types package so callers checking errors against
// the root package don't need to import types directly.
var (
	// ErrFired is returned to a running unit when its owner no longer
	// matches the work table record, meaning a peer reclaimed it as
	// stale.
	ErrFired = types.ErrFired

	// ErrNotSupported is returned by a store adapter for a capability it
	// does not implement, such as SplitVector on a non-sharded deployment.
	ErrNotSupported = types.ErrNotSupported
)
