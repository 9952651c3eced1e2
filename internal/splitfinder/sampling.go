package splitfinder

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/drmirror/workers/types"
)

// Sampling is Strategy A: read every value of field, sorted ascending,
// and divide the resulting array into numUnits equal-length steps. It
// works against any store, at the cost of a full collection scan.
type Sampling struct{}

func (Sampling) Compute(ctx context.Context, adapter types.StoreAdapter, field string, numUnits int) ([]types.Range, error) {
	if numUnits <= 1 {
		return []types.Range{{}}, nil
	}

	cur, err := adapter.Find(ctx, bson.D{}, field, true)
	if err != nil {
		return nil, fmt.Errorf("sampling scan: %w", err)
	}
	defer cur.Close(ctx)

	var values []any
	for cur.Next(ctx) {
		var raw bson.Raw
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("sampling decode: %w", err)
		}
		v, err := fieldValue(raw, field)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("sampling cursor: %w", err)
	}

	step := len(values) / numUnits
	if step == 0 {
		// fewer documents than requested units: one unbounded range
		return []types.Range{{}}, nil
	}

	ranges := make([]types.Range, 0, numUnits)
	ranges = append(ranges, types.Range{Lower: nil, Upper: values[step]})
	for i := 1; i < numUnits-1; i++ {
		ranges = append(ranges, types.Range{Lower: values[i*step], Upper: values[(i+1)*step]})
	}
	ranges = append(ranges, types.Range{Lower: values[step*(numUnits-1)], Upper: nil})

	return ranges, nil
}
