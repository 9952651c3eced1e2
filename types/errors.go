package types

import "errors"

// Sentinel errors shared between the root package and its internal
// components. Callers should compare with errors.Is, since these are
// frequently wrapped with additional context.
var (
	// ErrNoDocuments is returned by StoreAdapter calls that find no
	// matching document.
	ErrNoDocuments = errors.New("no matching document")

	// ErrDuplicateKey is returned by InsertUnique when a document
	// violating a unique index already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrFired is returned from the worker loop when a heartbeat discovers
	// that another worker has taken over the current unit.
	ErrFired = errors.New("worker fired: unit reassigned")

	// ErrNotSupported is returned by a StoreAdapter method the backing
	// store cannot perform (e.g. SplitVector on a standalone deployment).
	ErrNotSupported = errors.New("operation not supported by store")
)
