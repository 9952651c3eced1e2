package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/stretchr/testify/require"

	"github.com/drmirror/workers/internal/store"
)

type testDoc struct {
	ID int `bson:"_id"`
}

func newTestStore(t *testing.T, n int) *store.Memory {
	t.Helper()
	s := store.NewMemory("_id")
	docs := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, testDoc{ID: i})
	}
	require.NoError(t, s.SeedData(docs...))

	return s
}

func testConfigFor(db, coll string) Config {
	cfg := TestConfig()
	cfg.DatabaseName = db
	cfg.CollectionName = coll
	cfg.FieldName = "_id"

	return cfg
}

func TestWorkerProcessesEveryDocumentExactlyOnce(t *testing.T) {
	s := newTestStore(t, 100)
	cfg := testConfigFor("testdb", "docs")
	cfg.NumUnits = 4

	var mu sync.Mutex
	seen := map[int]int{}

	hooks := &Hooks{
		Process: func(ctx context.Context, doc []byte) error {
			var d testDoc
			if err := bson.Unmarshal(doc, &d); err != nil {
				return err
			}
			mu.Lock()
			seen[d.ID]++
			mu.Unlock()

			return nil
		},
	}

	w, err := NewWorker(cfg, s, WithHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Wait())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 100)
	for id, count := range seen {
		require.Equalf(t, 1, count, "document %d processed %d times", id, count)
	}
}

func TestWorkerEmptyCollectionSingleUnit(t *testing.T) {
	s := newTestStore(t, 0)
	cfg := testConfigFor("testdb", "empty")
	cfg.NumUnits = 1

	calls := 0
	hooks := &Hooks{
		Process: func(ctx context.Context, doc []byte) error {
			calls++

			return nil
		},
	}

	w, err := NewWorker(cfg, s, WithHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Wait())
	require.Equal(t, 0, calls)
}

func TestWorkerSecondRunAfterAllCompletedReprocesses(t *testing.T) {
	s := newTestStore(t, 10)
	cfg := testConfigFor("testdb", "docs")
	cfg.NumUnits = 2

	var count int
	hooks := &Hooks{
		Process: func(ctx context.Context, doc []byte) error {
			count++

			return nil
		},
	}

	w1, err := NewWorker(cfg, s, WithHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, w1.Start(context.Background()))
	require.NoError(t, w1.Wait())
	require.Equal(t, 10, count)

	w2, err := NewWorker(cfg, s, WithHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, w2.Start(context.Background()))
	require.NoError(t, w2.Wait())
	require.Equal(t, 20, count)
}

func TestNewWorkerRequiresProcessHook(t *testing.T) {
	s := newTestStore(t, 1)
	cfg := testConfigFor("testdb", "docs")

	_, err := NewWorker(cfg, s)
	require.ErrorIs(t, err, ErrProcessRequired)
}

func TestNewWorkerRequiresStore(t *testing.T) {
	cfg := testConfigFor("testdb", "docs")
	hooks := &Hooks{Process: func(ctx context.Context, doc []byte) error { return nil }}

	_, err := NewWorker(cfg, nil, WithHooks(hooks))
	require.ErrorIs(t, err, ErrStoreRequired)
}

func TestWorkerStartTwiceReturnsErrAlreadyStarted(t *testing.T) {
	s := newTestStore(t, 1)
	cfg := testConfigFor("testdb", "docs")
	hooks := &Hooks{Process: func(ctx context.Context, doc []byte) error { return nil }}

	w, err := NewWorker(cfg, s, WithHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.ErrorIs(t, w.Start(context.Background()), ErrAlreadyStarted)
	require.NoError(t, w.Wait())
}

func TestWorkerStopBeforeCompletionWaitsForExit(t *testing.T) {
	s := newTestStore(t, 5)
	cfg := testConfigFor("testdb", "docs")

	hooks := &Hooks{
		Process: func(ctx context.Context, doc []byte) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}

			return nil
		},
	}

	w, err := NewWorker(cfg, s, WithHooks(hooks))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
}

func TestWorkerWaitStateObservesTransitions(t *testing.T) {
	s := newTestStore(t, 3)
	cfg := testConfigFor("testdb", "docs")

	hooks := &Hooks{Process: func(ctx context.Context, doc []byte) error { return nil }}

	w, err := NewWorker(cfg, s, WithHooks(hooks))
	require.NoError(t, err)

	ch, unsubscribe := w.WaitState()
	defer unsubscribe()

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Wait())

	seenDone := false
	for {
		select {
		case st := <-ch:
			if st == WorkerDone {
				seenDone = true
			}
		case <-time.After(50 * time.Millisecond):
			require.True(t, seenDone, "expected to observe WorkerDone transition")

			return
		}
	}
}
