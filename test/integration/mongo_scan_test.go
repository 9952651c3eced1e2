// Package integration_test exercises Worker against a real mongod,
// skipped unless MONGO_TEST_URI is set.
package integration_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/stretchr/testify/require"

	"github.com/drmirror/workers"
	"github.com/drmirror/workers/internal/store"
)

func mongoTestURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping integration test")
	}

	return uri
}

func freshDatabase(t *testing.T, client *mongo.Client, name string) *mongo.Database {
	t.Helper()
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
	})

	return db
}

func TestSingleWorkerProcessesCollectionExactlyOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	uri := mongoTestURI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	db := freshDatabase(t, client, fmt.Sprintf("workers_it_%d", time.Now().UnixNano()))

	const n = 100
	docs := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, bson.M{"_id": i})
	}
	_, err = db.Collection("documents").InsertMany(ctx, docs)
	require.NoError(t, err)

	adapter := store.NewMongo(db.Collection("work"), db.Collection("documents"), "_id")

	cfg := workers.TestConfig()
	cfg.DatabaseName = db.Name()
	cfg.CollectionName = "documents"
	cfg.FieldName = "_id"
	cfg.NumUnits = 4

	var mu sync.Mutex
	seen := map[int]int{}
	hooks := &workers.Hooks{
		Process: func(ctx context.Context, doc []byte) error {
			var d struct {
				ID int `bson:"_id"`
			}
			if err := bson.Unmarshal(doc, &d); err != nil {
				return err
			}
			mu.Lock()
			seen[d.ID]++
			mu.Unlock()

			return nil
		},
	}

	w, err := workers.NewWorker(cfg, adapter, workers.WithHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Wait())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, n)
	for id, count := range seen {
		require.Equalf(t, 1, count, "document %d processed %d times", id, count)
	}
}

func TestTwoWorkersRaceBootstrapAndSplitUnits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Parallel()

	uri := mongoTestURI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	db := freshDatabase(t, client, fmt.Sprintf("workers_it_%d", time.Now().UnixNano()))

	const n = 200
	docs := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, bson.M{"_id": i})
	}
	_, err = db.Collection("documents").InsertMany(ctx, docs)
	require.NoError(t, err)

	cfg := workers.TestConfig()
	cfg.DatabaseName = db.Name()
	cfg.CollectionName = "documents"
	cfg.FieldName = "_id"
	cfg.NumUnits = 4

	var mu sync.Mutex
	seen := map[int]int{}
	makeHooks := func() *workers.Hooks {
		return &workers.Hooks{
			Process: func(ctx context.Context, doc []byte) error {
				var d struct {
					ID int `bson:"_id"`
				}
				if err := bson.Unmarshal(doc, &d); err != nil {
					return err
				}
				mu.Lock()
				seen[d.ID]++
				mu.Unlock()

				return nil
			},
		}
	}

	adapter1 := store.NewMongo(db.Collection("work"), db.Collection("documents"), "_id")
	adapter2 := store.NewMongo(db.Collection("work"), db.Collection("documents"), "_id")

	w1, err := workers.NewWorker(cfg, adapter1, workers.WithHooks(makeHooks()))
	require.NoError(t, err)
	w2, err := workers.NewWorker(cfg, adapter2, workers.WithHooks(makeHooks()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); require.NoError(t, w1.Start(ctx)) }()
	go func() { defer wg.Done(); require.NoError(t, w2.Start(ctx)) }()
	wg.Wait()

	require.NoError(t, w1.Wait())
	require.NoError(t, w2.Wait())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, n)
	for id, count := range seen {
		require.Equalf(t, 1, count, "document %d processed %d times", id, count)
	}
}
