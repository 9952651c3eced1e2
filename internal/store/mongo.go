// Package store provides the concrete StoreAdapter implementations the
// coordination core runs against: a MongoDB-backed adapter for production
// use, and an in-memory fake for fast, server-less tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/drmirror/workers/types"
)

// Mongo adapts a *mongo.Collection pair (the work table collection, and the
// data collection being scanned) to types.StoreAdapter.
type Mongo struct {
	work       *mongo.Collection
	data       *mongo.Collection
	dataField  string
	maxRetries int

	splitVectorOnce sync.Once
	splitVectorOK   bool
}

// NewMongo builds a Mongo adapter. work is the collection holding work
// table records (conventionally named "work"); data is the collection
// being scanned; field is the name of the key field units are split on.
func NewMongo(work, data *mongo.Collection, field string) *Mongo {
	return &Mongo{work: work, data: data, dataField: field, maxRetries: 3}
}

func (m *Mongo) EnsureUniqueIndex(ctx context.Context, fields ...string) error {
	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	model := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true),
	}

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		_, err := m.work.Indexes().CreateOne(ctx, model)
		if err == nil {
			return nil
		}
		if mongo.IsDuplicateKeyError(err) {
			// another worker is creating the same index concurrently
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled during index creation: %w", ctx.Err())
		}
		if attempt < m.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("failed to create unique index after %d attempts: %w", m.maxRetries, lastErr)
}

func (m *Mongo) InsertUnique(ctx context.Context, doc any) error {
	_, err := m.work.InsertOne(ctx, doc)
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return types.ErrDuplicateKey
	}

	return fmt.Errorf("insert work table: %w", err)
}

func (m *Mongo) FindOneAndUpdate(ctx context.Context, filter, update, result any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.work.FindOneAndUpdate(ctx, filter, update, opts).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.ErrNoDocuments
	}
	if err != nil {
		return fmt.Errorf("find_one_and_update work table: %w", err)
	}

	return nil
}

func (m *Mongo) FindOne(ctx context.Context, filter, result any) error {
	err := m.work.FindOne(ctx, filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.ErrNoDocuments
	}
	if err != nil {
		return fmt.Errorf("find_one work table: %w", err)
	}

	return nil
}

func (m *Mongo) ReplaceOne(ctx context.Context, filter, doc any) error {
	_, err := m.work.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace work table: %w", err)
	}

	return nil
}

func (m *Mongo) Find(ctx context.Context, filter any, sortField string, ascending bool) (types.Cursor, error) {
	dir := 1
	if !ascending {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: dir}})
	cur, err := m.data.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find on data collection: %w", err)
	}

	return &mongoCursor{cur: cur}, nil
}

// SupportsSplitVector probes the server once, on first use, and caches the
// result: standalone and other non-sharded deployments return a
// CommandNotFound error for splitVector, which SplitFinder needs to know
// about before choosing Strategy B.
func (m *Mongo) SupportsSplitVector() bool {
	m.splitVectorOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ns := m.data.Database().Name() + "." + m.data.Name()
		cmd := bson.D{
			{Key: "splitVector", Value: ns},
			{Key: "keyPattern", Value: bson.D{{Key: m.dataField, Value: 1}}},
			// A large target chunk size keeps this probe cheap: the server
			// computes few or no split points regardless of collection size.
			{Key: "maxChunkSizeBytes", Value: int64(1) << 40},
		}
		err := m.data.Database().RunCommand(ctx, cmd).Err()

		switch {
		case err == nil:
			m.splitVectorOK = true
		case isUnsupportedCommand(err):
			m.splitVectorOK = false
		default:
			// An unrelated error (timeout, auth) doesn't tell us the command
			// is missing; assume it's supported and let the real call surface
			// whatever the actual problem is.
			m.splitVectorOK = true
		}
	})

	return m.splitVectorOK
}

func (m *Mongo) CollStats(ctx context.Context) (types.CollectionStats, error) {
	var out struct {
		Count      int64 `bson:"count"`
		AvgObjSize int64 `bson:"avgObjSize"`
	}
	cmd := bson.D{{Key: "collStats", Value: m.data.Name()}}
	if err := m.data.Database().RunCommand(ctx, cmd).Decode(&out); err != nil {
		return types.CollectionStats{}, fmt.Errorf("collStats: %w", err)
	}

	return types.CollectionStats{Count: out.Count, AvgObjSize: out.AvgObjSize}, nil
}

func (m *Mongo) SplitVector(ctx context.Context, field string, maxChunkSizeBytes int64) ([]any, error) {
	var out struct {
		SplitKeys []bson.Raw `bson:"splitKeys"`
	}
	ns := m.data.Database().Name() + "." + m.data.Name()
	cmd := bson.D{
		{Key: "splitVector", Value: ns},
		{Key: "keyPattern", Value: bson.D{{Key: field, Value: 1}}},
		{Key: "maxChunkSizeBytes", Value: maxChunkSizeBytes},
	}
	if err := m.data.Database().RunCommand(ctx, cmd).Decode(&out); err != nil {
		if isUnsupportedCommand(err) {
			return nil, types.ErrNotSupported
		}

		return nil, fmt.Errorf("splitVector: %w", err)
	}

	values := make([]any, 0, len(out.SplitKeys))
	for _, raw := range out.SplitKeys {
		v, err := raw.LookupErr(field)
		if err != nil {
			continue
		}
		values = append(values, v)
	}

	return values, nil
}

func isUnsupportedCommand(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 59 = CommandNotFound, commonly returned by standalone/non-sharded
		// deployments that don't implement splitVector.
		return ce.Code == 59
	}

	return false
}

type mongoCursor struct {
	cur *mongo.Cursor
}

func (c *mongoCursor) Next(ctx context.Context) bool { return c.cur.Next(ctx) }
func (c *mongoCursor) Decode(v any) error            { return c.cur.Decode(v) }
func (c *mongoCursor) Err() error                    { return c.cur.Err() }
func (c *mongoCursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}
