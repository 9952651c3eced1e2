// Package hooks provides default Hooks implementations.
package hooks

import (
	"context"

	"github.com/drmirror/workers/types"
)

// NopHooks implements every optional hook as a no-op. Process still must
// be supplied by the caller; NewNop leaves it nil and the root package
// rejects a nil Process at construction time.
type NopHooks struct{}

// NewNop returns a Hooks value with every optional callback set to a
// no-op, so the worker loop never needs nil checks for them.
func NewNop() types.Hooks {
	h := &NopHooks{}

	return types.Hooks{
		StartProcessing:  h.StartProcessing,
		StartUnit:        h.StartUnit,
		FinishUnit:       h.FinishUnit,
		Cleanup:          h.Cleanup,
		Fired:            h.Fired,
		FinishProcessing: h.FinishProcessing,
	}
}

func (h *NopHooks) StartProcessing(ctx context.Context) error { return nil }

func (h *NopHooks) StartUnit(ctx context.Context, r types.Range) error { return nil }

func (h *NopHooks) FinishUnit(ctx context.Context, r types.Range) error { return nil }

func (h *NopHooks) Cleanup(ctx context.Context, r types.Range) error { return nil }

func (h *NopHooks) Fired(ctx context.Context, r types.Range) error { return nil }

func (h *NopHooks) FinishProcessing(ctx context.Context) error { return nil }
