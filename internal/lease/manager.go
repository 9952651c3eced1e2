// Package lease implements the advisory lock that serializes access to a
// single work table record across every worker scanning a collection.
//
// Acquisition is an atomic find_one_and_update conditioned on lock=false,
// retried with jittered backoff. A lock left held by a crashed owner is
// detected by its age and cleared by exactly one contender, guarded by a
// compare-and-swap on the timestamp that contender observed.
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	rand "math/rand/v2"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/drmirror/workers/internal/backoff"
	"github.com/drmirror/workers/internal/notify"
	"github.com/drmirror/workers/types"
)

// Option configures a Manager with optional dependencies.
type Option func(*Manager)

// WithLogger sets a logger for stuck-lock recovery events.
func WithLogger(l types.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets a metrics collector for lease wait/recovery events.
func WithMetrics(mc types.MetricsCollector) Option {
	return func(m *Manager) { m.metrics = mc }
}

// WithRNG pins the jitter generator to a deterministic seed, for tests.
func WithRNG(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// WithEventPublisher sets a best-effort publisher notified when a stuck
// lock is cleared. Never blocks or fails lease operations.
func WithEventPublisher(pub types.EventPublisher) Option {
	return func(m *Manager) { m.publisher = pub }
}

// Manager acquires and releases the work table lease for one
// (collection, field) coordination domain.
type Manager struct {
	adapter    types.StoreAdapter
	collection string
	field      string
	backoff    time.Duration
	maxLockAge time.Duration
	rng        *rand.Rand
	logger     types.Logger
	metrics    types.MetricsCollector
	publisher  types.EventPublisher
}

// New builds a Manager. backoffBase and maxLockAge correspond to the
// protocol's BACKOFF_MILLIS and MAX_LOCK_MILLIS tunables.
func New(adapter types.StoreAdapter, collection, field string, backoffBase, maxLockAge time.Duration, opts ...Option) *Manager {
	m := &Manager{
		adapter:    adapter,
		collection: collection,
		field:      field,
		backoff:    backoffBase,
		maxLockAge: maxLockAge,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) keyFilter() bson.D {
	return bson.D{{Key: "collection", Value: m.collection}, {Key: "field", Value: m.field}}
}

// Acquire blocks until it wins the lease, returning the work table record
// as of the moment it won. It checks for, and clears, a stuck lock on
// every failed attempt before backing off and retrying.
func (m *Manager) Acquire(ctx context.Context) (*types.WorkTable, error) {
	start := time.Now()
	for {
		filter := append(m.keyFilter(), bson.E{Key: "lock", Value: false})
		update := bson.D{{Key: "$set", Value: bson.D{
			{Key: "lock", Value: true},
			{Key: "ts", Value: time.Now()},
		}}}

		var wt types.WorkTable
		err := m.adapter.FindOneAndUpdate(ctx, filter, update, &wt)
		if err == nil {
			if m.metrics != nil {
				m.metrics.RecordLeaseWait(time.Since(start))
			}

			return &wt, nil
		}
		if !errors.Is(err, types.ErrNoDocuments) {
			return nil, fmt.Errorf("acquire work table lease: %w", err)
		}

		m.checkStuckLock(ctx)

		d := backoff.Jitter(m.backoff, m.rng)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}
}

// Release writes wt back with lock cleared. It must only be called with
// a work table obtained from Acquire.
func (m *Manager) Release(ctx context.Context, wt *types.WorkTable) error {
	wt.Lock = false
	wt.TS = time.Now()
	filter := bson.D{{Key: "_id", Value: wt.ID}}
	if err := m.adapter.ReplaceOne(ctx, filter, wt); err != nil {
		return fmt.Errorf("release work table lease: %w", err)
	}

	return nil
}

// checkStuckLock reads the work table without modifying it, and clears
// the lock if it's been held longer than maxLockAge. A unit list that
// hasn't been computed yet is never considered stuck, since computing it
// can legitimately take a long time.
func (m *Manager) checkStuckLock(ctx context.Context) {
	var wt types.WorkTable
	if err := m.adapter.FindOne(ctx, m.keyFilter(), &wt); err != nil {
		return
	}
	if !wt.Lock || len(wt.Units) == 0 {
		return
	}
	age := time.Since(wt.TS)
	if age <= m.maxLockAge {
		return
	}

	// Condition the clearing update on the timestamp we just observed:
	// if two workers race here, only the one whose observed ts still
	// matches will succeed, so at most one clears the lock.
	clearFilter := append(m.keyFilter(), bson.E{Key: "ts", Value: wt.TS})
	clearUpdate := bson.D{{Key: "$set", Value: bson.D{
		{Key: "lock", Value: false},
		{Key: "ts", Value: time.Now()},
	}}}
	var cleared types.WorkTable
	if err := m.adapter.FindOneAndUpdate(ctx, clearFilter, clearUpdate, &cleared); err != nil {
		return
	}

	if m.logger != nil {
		m.logger.Info("cleared stuck work table lock", "collection", m.collection, "field", m.field, "age", age)
	}
	if m.metrics != nil {
		m.metrics.RecordStuckLockCleared()
	}
	if m.publisher != nil {
		payload := fmt.Sprintf(`{"collection":%q,"field":%q,"age_ms":%d}`, m.collection, m.field, age.Milliseconds())
		if err := m.publisher.Publish(ctx, "workers.lease_recovered", []byte(payload)); err != nil && m.logger != nil {
			if notify.IsConnectivityError(err) {
				// expected and noisy while the notifier is unreachable; not
				// worth surfacing at warning level on every recovery
				m.logger.Debug("event publish skipped: notifier unreachable", "event", "lease_recovered", "error", err)
			} else {
				m.logger.Warn("event publish failed", "event", "lease_recovered", "error", err)
			}
		}
	}
}
