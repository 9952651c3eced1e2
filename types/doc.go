// Package types defines the shared data model and interfaces for the
// workers library: the Range/Unit/WorkTable shapes persisted in the store,
// the StoreAdapter capability contract, and the Logger/MetricsCollector/Hooks
// extension points. Kept separate from the root package to avoid import
// cycles with internal/store, internal/lease, and internal/picker.
package types
