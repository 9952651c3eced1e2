package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/drmirror/workers/types"
)

// Memory is an in-memory types.StoreAdapter backed by bson round-tripping
// through the same marshaler the production Mongo adapter uses, so tests
// exercise the same document shapes without a live server. It does not
// support SplitVector, matching a non-sharded deployment.
type Memory struct {
	mu       sync.Mutex
	work     map[string]bson.M
	data     []bson.M
	field    string
	seq      int
}

// NewMemory returns an empty fake store for documents keyed on field.
func NewMemory(field string) *Memory {
	return &Memory{work: make(map[string]bson.M), field: field}
}

// SeedData loads the data collection the fake scans. docs are marshaled
// through bson so behavior matches the real adapter's decode path.
func (m *Memory) SeedData(docs ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		raw, err := toBsonM(d)
		if err != nil {
			return err
		}
		m.data = append(m.data, raw)
	}

	return nil
}

func toBsonM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	return m, nil
}

func decodeInto(m bson.M, result any) error {
	raw, err := bson.Marshal(m)
	if err != nil {
		return err
	}

	return bson.Unmarshal(raw, result)
}

// workKey derives the unique-index key from a filter or document's
// collection+field pair, mirroring the real unique index.
func workKey(m bson.M) string {
	return fmt.Sprintf("%v\x00%v", m["collection"], m["field"])
}

func (m *Memory) EnsureUniqueIndex(ctx context.Context, fields ...string) error {
	return nil
}

func (m *Memory) InsertUnique(ctx context.Context, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := toBsonM(doc)
	if err != nil {
		return err
	}
	key := workKey(raw)
	if _, exists := m.work[key]; exists {
		return types.ErrDuplicateKey
	}
	m.seq++
	raw["_id"] = m.seq
	m.work[key] = raw

	return nil
}

func (m *Memory) FindOneAndUpdate(ctx context.Context, filter, update, result any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := toBsonM(filter)
	if err != nil {
		return err
	}
	key := workKey(f)
	doc, ok := m.work[key]
	if !ok || !matches(doc, f) {
		return types.ErrNoDocuments
	}

	u, err := toBsonM(update)
	if err != nil {
		return err
	}
	if set, ok := u["$set"].(bson.M); ok {
		for k, v := range set {
			doc[k] = v
		}
	} else if set, ok := u["$set"].(map[string]any); ok {
		for k, v := range set {
			doc[k] = v
		}
	} else if set, ok := u["$set"].(bson.D); ok {
		for _, e := range set {
			doc[e.Key] = e.Value
		}
	}
	m.work[key] = doc

	return decodeInto(doc, result)
}

func (m *Memory) FindOne(ctx context.Context, filter, result any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := toBsonM(filter)
	if err != nil {
		return err
	}
	key := workKey(f)
	doc, ok := m.work[key]
	if !ok {
		return types.ErrNoDocuments
	}

	return decodeInto(doc, result)
}

func (m *Memory) ReplaceOne(ctx context.Context, filter, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := toBsonM(doc)
	if err != nil {
		return err
	}
	key := workKey(raw)
	m.work[key] = raw

	return nil
}

// matches applies flat equality comparisons; the only filters the
// coordination core issues against the work table are flat (collection,
// field, lock, ts).
func matches(doc, filter bson.M) bool {
	for k, v := range filter {
		if compare(doc[k], v) != 0 {
			return false
		}
	}

	return true
}

func (m *Memory) Find(ctx context.Context, filter any, sortField string, ascending bool) (types.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := toBsonM(filter)
	if err != nil {
		return nil, err
	}

	cond, _ := f[m.field].(bson.M)
	if d, ok := f[m.field].(bson.D); ok {
		cond = bson.M{}
		for _, e := range d {
			cond[e.Key] = e.Value
		}
	}
	var out []bson.M
	for _, d := range m.data {
		if inRange(d[m.field], cond) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i][sortField], out[j][sortField])
		if ascending {
			return c < 0
		}

		return c > 0
	})

	return &memCursor{docs: out}, nil
}

func inRange(v any, cond bson.M) bool {
	if cond == nil {
		return true
	}
	if gte, ok := cond["$gte"]; ok && compare(v, gte) < 0 {
		return false
	}
	if lt, ok := cond["$lt"]; ok && compare(v, lt) >= 0 {
		return false
	}

	return true
}

func (m *Memory) SupportsSplitVector() bool { return false }

func (m *Memory) CollStats(ctx context.Context) (types.CollectionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, d := range m.data {
		raw, _ := bson.Marshal(d)
		total += int64(len(raw))
	}
	count := int64(len(m.data))
	var avg int64
	if count > 0 {
		avg = total / count
	}

	return types.CollectionStats{Count: count, AvgObjSize: avg}, nil
}

func (m *Memory) SplitVector(ctx context.Context, field string, maxChunkSizeBytes int64) ([]any, error) {
	return nil, types.ErrNotSupported
}

type memCursor struct {
	docs []bson.M
	i    int
}

func (c *memCursor) Next(ctx context.Context) bool {
	if c.i >= len(c.docs) {
		return false
	}
	c.i++

	return true
}

func (c *memCursor) Decode(v any) error {
	return decodeInto(c.docs[c.i-1], v)
}

func (c *memCursor) Err() error            { return nil }
func (c *memCursor) Close(ctx context.Context) error { return nil }
