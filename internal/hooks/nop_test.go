package hooks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drmirror/workers/internal/hooks"
	"github.com/drmirror/workers/types"
)

func TestNopHooksAreAllNonNilExceptProcess(t *testing.T) {
	h := hooks.NewNop()

	assert.Nil(t, h.Process)
	require.NotNil(t, h.StartProcessing)
	require.NotNil(t, h.StartUnit)
	require.NotNil(t, h.FinishUnit)
	require.NotNil(t, h.Cleanup)
	require.NotNil(t, h.Fired)
	require.NotNil(t, h.FinishProcessing)

	ctx := context.Background()
	assert.NoError(t, h.StartProcessing(ctx))
	assert.NoError(t, h.StartUnit(ctx, types.Range{}))
	assert.NoError(t, h.FinishUnit(ctx, types.Range{}))
	assert.NoError(t, h.Cleanup(ctx, types.Range{}))
	assert.NoError(t, h.Fired(ctx, types.Range{}))
	assert.NoError(t, h.FinishProcessing(ctx))
}
