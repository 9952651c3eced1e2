package splitfinder

import (
	"context"
	"errors"
	"fmt"

	"github.com/drmirror/workers/types"
)

// Stats is Strategy B: ask the store for collection size statistics and a
// server-computed split-point vector targeting a chunk size of
// (2 × total size / numUnits), avoiding a full client-side scan. Falls
// back to Sampling if the store reports SplitVector unsupported partway
// through (a capability that can only be confirmed by trying).
//
// The number of ranges actually produced is whatever SplitVector returns,
// which may not equal numUnits when the data is unevenly distributed or
// smaller than the requested split count. Callers must treat numUnits as
// a target, not a guarantee.
type Stats struct{}

func (Stats) Compute(ctx context.Context, adapter types.StoreAdapter, field string, numUnits int) ([]types.Range, error) {
	if numUnits <= 1 {
		return []types.Range{{}}, nil
	}

	cs, err := adapter.CollStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("collStats: %w", err)
	}
	if cs.Count == 0 {
		return []types.Range{{}}, nil
	}

	totalSize := 2 * cs.Count * cs.AvgObjSize
	maxChunkSize := totalSize / int64(numUnits)
	if maxChunkSize <= 0 {
		maxChunkSize = 1
	}

	splits, err := adapter.SplitVector(ctx, field, maxChunkSize)
	if errors.Is(err, types.ErrNotSupported) {
		return Sampling{}.Compute(ctx, adapter, field, numUnits)
	}
	if err != nil {
		return nil, fmt.Errorf("splitVector: %w", err)
	}
	if len(splits) == 0 {
		return []types.Range{{}}, nil
	}

	ranges := make([]types.Range, 0, len(splits)+1)
	ranges = append(ranges, types.Range{Lower: nil, Upper: splits[0]})
	for i := 0; i < len(splits)-1; i++ {
		ranges = append(ranges, types.Range{Lower: splits[i], Upper: splits[i+1]})
	}
	ranges = append(ranges, types.Range{Lower: splits[len(splits)-1], Upper: nil})

	return ranges, nil
}
