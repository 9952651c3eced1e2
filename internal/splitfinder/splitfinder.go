// Package splitfinder computes the initial partition of a collection's key
// space into roughly equal ranges, using whichever strategy the backing
// store can support.
package splitfinder

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/drmirror/workers/types"
)

// Strategy computes the ranges a work table's units should cover.
type Strategy interface {
	// Compute returns ranges partitioning field's observed key space, in
	// ascending order, each half-open [Lower, Upper). numUnits is a
	// target: the number returned may differ (a single unbounded range
	// for small collections, or whatever split points Stats receives).
	Compute(ctx context.Context, adapter types.StoreAdapter, field string, numUnits int) ([]types.Range, error)
}

// Choose picks the stats-based Strategy when the adapter reports
// SplitVector support, and falls back to the full-scan Sampling strategy
// otherwise (e.g. a standalone or non-sharded deployment, or the
// in-memory test fake).
func Choose(adapter types.StoreAdapter) Strategy {
	if adapter.SupportsSplitVector() {
		return Stats{}
	}

	return Sampling{}
}

// fieldValue extracts field from a raw BSON document.
func fieldValue(raw bson.Raw, field string) (any, error) {
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	v, ok := m[field]
	if !ok {
		return nil, fmt.Errorf("field %q missing from document", field)
	}

	return v, nil
}
