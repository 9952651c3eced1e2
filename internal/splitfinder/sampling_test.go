package splitfinder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drmirror/workers/internal/splitfinder"
	"github.com/drmirror/workers/internal/store"
)

func TestSamplingComputeDividesIntoSteps(t *testing.T) {
	mem := store.NewMemory("n")
	docs := make([]any, 0, 100)
	for i := 0; i < 100; i++ {
		docs = append(docs, map[string]any{"n": i})
	}
	require.NoError(t, mem.SeedData(docs...))

	ranges, err := splitfinder.Sampling{}.Compute(context.Background(), mem, "n", 4)
	require.NoError(t, err)
	require.Len(t, ranges, 4)
	assert.Nil(t, ranges[0].Lower)
	assert.Equal(t, ranges[0].Upper, ranges[1].Lower)
	assert.Nil(t, ranges[3].Upper)
}

func TestSamplingSingleUnitIsUnbounded(t *testing.T) {
	mem := store.NewMemory("n")
	ranges, err := splitfinder.Sampling{}.Compute(context.Background(), mem, "n", 1)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Nil(t, ranges[0].Lower)
	assert.Nil(t, ranges[0].Upper)
}

func TestChooseFallsBackToSamplingWithoutSplitVector(t *testing.T) {
	mem := store.NewMemory("n")
	strat := splitfinder.Choose(mem)
	assert.IsType(t, splitfinder.Sampling{}, strat)
}
