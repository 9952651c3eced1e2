package store

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/stretchr/testify/require"

	"github.com/drmirror/workers/types"
)

func TestMemoryInsertUniqueRejectsDuplicateKey(t *testing.T) {
	m := NewMemory("_id")
	ctx := context.Background()

	wt := types.WorkTable{Collection: "docs", Field: "_id"}
	require.NoError(t, m.InsertUnique(ctx, wt))
	require.ErrorIs(t, m.InsertUnique(ctx, wt), types.ErrDuplicateKey)
}

func TestMemoryFindOneAndUpdateAppliesSet(t *testing.T) {
	m := NewMemory("_id")
	ctx := context.Background()

	wt := types.WorkTable{Collection: "docs", Field: "_id", Lock: false}
	require.NoError(t, m.InsertUnique(ctx, wt))

	filter := bson.D{{Key: "collection", Value: "docs"}, {Key: "field", Value: "_id"}, {Key: "lock", Value: false}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "lock", Value: true}}}}

	var out types.WorkTable
	require.NoError(t, m.FindOneAndUpdate(ctx, filter, update, &out))
	require.True(t, out.Lock)

	// a second attempt conditioned on lock=false no longer matches
	require.ErrorIs(t, m.FindOneAndUpdate(ctx, filter, update, &out), types.ErrNoDocuments)
}

func TestMemoryFindSortsAscendingWithinRange(t *testing.T) {
	m := NewMemory("_id")
	require.NoError(t, m.SeedData(
		bson.M{"_id": 5}, bson.M{"_id": 1}, bson.M{"_id": 3}, bson.M{"_id": 10},
	))

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$gte", Value: 1}, {Key: "$lt", Value: 10}}}}
	cur, err := m.Find(context.Background(), filter, "_id", true)
	require.NoError(t, err)
	defer cur.Close(context.Background())

	var ids []int
	for cur.Next(context.Background()) {
		var d struct {
			ID int `bson:"_id"`
		}
		require.NoError(t, cur.Decode(&d))
		ids = append(ids, d.ID)
	}
	require.Equal(t, []int{1, 3, 5}, ids)
}

func TestMemorySupportsSplitVectorIsFalse(t *testing.T) {
	m := NewMemory("_id")
	require.False(t, m.SupportsSplitVector())

	_, err := m.SplitVector(context.Background(), "_id", 1024)
	require.ErrorIs(t, err, types.ErrNotSupported)
}

func TestMemoryCollStatsReflectsSeededData(t *testing.T) {
	m := NewMemory("_id")
	require.NoError(t, m.SeedData(bson.M{"_id": 1}, bson.M{"_id": 2}))

	stats, err := m.CollStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Count)
	require.Greater(t, stats.AvgObjSize, int64(0))
}
