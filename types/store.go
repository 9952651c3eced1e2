package types

import "context"

// Cursor iterates the documents returned by a Find call, in the sort order
// requested. Implementations must be safe to abandon before exhaustion.
type Cursor interface {
	// Next advances the cursor. It returns false when iteration is done,
	// either because the results were exhausted or because ctx expired or
	// an error occurred; call Err to distinguish the two.
	Next(ctx context.Context) bool
	// Decode unmarshals the current document.
	Decode(v any) error
	// Err returns the first error encountered during iteration, if any.
	Err() error
	// Close releases resources held by the cursor.
	Close(ctx context.Context) error
}

// CollectionStats reports the size characteristics the stats-based
// SplitFinder strategy needs to compute an even chunk size.
type CollectionStats struct {
	Count       int64
	AvgObjSize  int64
}

// StoreAdapter is the storage capability the coordination core needs.
// It is intentionally narrow: no query planning, no schema, just the
// handful of operations the work table and unit protocol depend on.
//
// Implementations must give find_one_and_update-style calls atomic,
// read-modify-write semantics: the filter and update are applied as one
// operation, and the resulting document is returned (or ErrNoDocuments if
// nothing matched) so the caller can tell whether it won the race.
type StoreAdapter interface {
	// EnsureUniqueIndex creates a unique index over the given fields if one
	// does not already exist. It must tolerate concurrent callers racing to
	// create the same index.
	EnsureUniqueIndex(ctx context.Context, fields ...string) error

	// InsertUnique inserts doc, returning ErrDuplicateKey (wrapped) if a
	// document violating a unique index already exists.
	InsertUnique(ctx context.Context, doc any) error

	// FindOneAndUpdate atomically applies update to the document matching
	// filter and decodes the post-update document into result. It returns
	// ErrNoDocuments if no document matched.
	FindOneAndUpdate(ctx context.Context, filter, update, result any) error

	// FindOne decodes the first document matching filter into result. It
	// returns ErrNoDocuments if no document matched.
	FindOne(ctx context.Context, filter, result any) error

	// ReplaceOne overwrites the document matching filter with doc.
	ReplaceOne(ctx context.Context, filter, doc any) error

	// Find returns a cursor over documents matching filter, sorted
	// ascending (or descending) by sortField.
	Find(ctx context.Context, filter any, sortField string, ascending bool) (Cursor, error)

	// SupportsSplitVector reports whether the backing store can serve
	// CollStats/SplitVector, allowing SplitFinder to pick a stats-based
	// strategy instead of a full scan.
	SupportsSplitVector() bool

	// CollStats returns size statistics for the data collection being
	// scanned (not the work table).
	CollStats(ctx context.Context) (CollectionStats, error)

	// SplitVector returns split-point key values for the data collection,
	// aiming for chunks no larger than maxChunkSizeBytes, keyed by field.
	SplitVector(ctx context.Context, field string, maxChunkSizeBytes int64) ([]any, error)
}
