package workers

import "github.com/drmirror/workers/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types
// and interfaces using type aliases, so internal packages can depend on
// `types` without depending on the root `workers` package, while callers
// still get a convenient `workers.Range`, `workers.Logger`, etc.
type (
	Range    = types.Range
	Unit     = types.Unit
	WorkTable = types.WorkTable
)

// Re-export interfaces from the internal types package for convenience.
type (
	StoreAdapter     = types.StoreAdapter
	Cursor           = types.Cursor
	CollectionStats  = types.CollectionStats
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
	EventPublisher   = types.EventPublisher
	UnitStatus       = types.UnitStatus
)

// Re-export UnitStatus constants from the internal types package.
const (
	StatusOpen       = types.StatusOpen
	StatusProcessing = types.StatusProcessing
	StatusCleanup    = types.StatusCleanup
	StatusCompleted  = types.StatusCompleted
)
