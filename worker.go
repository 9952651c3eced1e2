package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	nophooks "github.com/drmirror/workers/internal/hooks"
	"github.com/drmirror/workers/internal/lease"
	"github.com/drmirror/workers/internal/logging"
	nopmetrics "github.com/drmirror/workers/internal/metrics"
	"github.com/drmirror/workers/internal/notify"
	"github.com/drmirror/workers/internal/picker"
	"github.com/drmirror/workers/internal/splitfinder"
	"github.com/drmirror/workers/internal/statebus"
	"github.com/drmirror/workers/types"
)

// WorkerState is a coarse label for what a Worker is currently doing,
// published on its state bus so observers can react without polling.
type WorkerState string

const (
	WorkerIdle       WorkerState = "idle"
	WorkerStarting   WorkerState = "starting"
	WorkerProcessing WorkerState = "processing"
	WorkerCleaningUp WorkerState = "cleaning_up"
	WorkerFired      WorkerState = "fired"
	WorkerDone       WorkerState = "done"
)

// Worker coordinates with its peers through a single work table record
// to scan a collection exactly once per document, modulo crash recovery.
// A Worker is used once: construct it, Start it, and either Wait for it
// to finish or Stop it early.
type Worker struct {
	cfg        Config
	id         string
	collection string
	store      types.StoreAdapter
	hooks      types.Hooks
	logger     types.Logger
	metrics    types.MetricsCollector
	pub        types.EventPublisher

	lease     *lease.Manager
	pickerCfg picker.Config

	state *statebus.Bus[WorkerState]

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
}

// NewWorker builds a Worker for cfg against store. A Hooks.Process
// callback must be supplied via WithHooks; every other hook defaults to
// a no-op.
func NewWorker(cfg Config, store types.StoreAdapter, opts ...Option) (*Worker, error) {
	SetDefaults(&cfg)
	if store == nil {
		return nil, ErrStoreRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o workerOptions
	for _, opt := range opts {
		opt(&o)
	}

	merged := nophooks.NewNop()
	if o.hooks != nil {
		if o.hooks.Process != nil {
			merged.Process = o.hooks.Process
		}
		if o.hooks.StartProcessing != nil {
			merged.StartProcessing = o.hooks.StartProcessing
		}
		if o.hooks.StartUnit != nil {
			merged.StartUnit = o.hooks.StartUnit
		}
		if o.hooks.FinishUnit != nil {
			merged.FinishUnit = o.hooks.FinishUnit
		}
		if o.hooks.Cleanup != nil {
			merged.Cleanup = o.hooks.Cleanup
		}
		if o.hooks.Fired != nil {
			merged.Fired = o.hooks.Fired
		}
		if o.hooks.FinishProcessing != nil {
			merged.FinishProcessing = o.hooks.FinishProcessing
		}
	}
	if merged.Process == nil {
		return nil, ErrProcessRequired
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewSlogDefault()
	}
	mc := o.metrics
	if mc == nil {
		mc = nopmetrics.NewNop()
	}

	collectionName := cfg.CollectionName
	if o.storeName != "" {
		collectionName = o.storeName
	}

	lm := lease.New(store, collectionName, cfg.FieldName, cfg.BackoffBase, cfg.MaxLockAge,
		lease.WithLogger(logger), lease.WithMetrics(mc), lease.WithEventPublisher(o.publisher))

	w := &Worker{
		cfg:        cfg,
		id:         uuid.NewString(),
		collection: collectionName,
		store:      store,
		hooks:      merged,
		logger:     logger,
		metrics:    mc,
		pub:        o.publisher,
		lease:      lm,
		pickerCfg: picker.Config{
			MaxMissedHeartbeats: cfg.MaxMissedHeartbeats,
			HeartbeatInterval:   cfg.HeartbeatInterval,
		},
		state: statebus.New(WorkerIdle),
		done:  make(chan struct{}),
	}

	return w, nil
}

// ID returns the worker's unique identity, used as the "owner" field on
// any unit it holds.
func (w *Worker) ID() string { return w.id }

// WaitState returns a channel receiving the current state immediately and
// each later state transition, and a func to unsubscribe. A subscriber
// that does not keep up loses its oldest undelivered states; the latest
// state is always kept.
func (w *Worker) WaitState() (<-chan WorkerState, func()) {
	return w.state.Subscribe()
}

// Start ensures the work table exists, acquires the lease, initializes
// units if needed, picks a unit, and spawns the processing loop in the
// background. It returns once that initial pick has happened, or
// immediately if no unit was available.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	startupCtx, cancel := context.WithTimeout(ctx, w.cfg.StartupTimeout)
	defer cancel()

	w.state.Set(WorkerStarting)

	if err := w.ensureWorkTable(startupCtx); err != nil {
		return fmt.Errorf("ensure work table: %w", err)
	}

	table, err := w.lease.Acquire(startupCtx)
	if err != nil {
		return fmt.Errorf("acquire initial lease: %w", err)
	}

	if table.Units == nil || table.AllCompleted() {
		units, err := w.initUnits(startupCtx)
		if err != nil {
			_ = w.lease.Release(startupCtx, table)
			return fmt.Errorf("initialize units: %w", err)
		}
		table.Units = units
	}

	idx, cleanup, ok := picker.Pick(table, w.id, time.Now(), w.pickerCfg)
	if ok {
		w.metrics.RecordUnitPicked(cleanup)
	}

	var r types.Range
	if ok {
		r = table.Units[idx].Range
	}

	if err := w.lease.Release(startupCtx, table); err != nil {
		return fmt.Errorf("release initial lease: %w", err)
	}

	if !ok {
		w.state.Set(WorkerDone)
		close(w.done)

		return nil
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	w.cancel = runCancel

	go w.run(runCtx, idx, cleanup, r)

	return nil
}

// Stop requests that the processing loop exit at its next safe point and
// waits for it to do so. Correctness never depends on Stop being called:
// an unresponsive or killed worker is recovered by a peer exactly as a
// crash would be.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()

		return ErrNotStarted
	}
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the processing loop exits, returning any fatal error
// it encountered. It returns immediately if Start picked no unit.
func (w *Worker) Wait() error {
	<-w.done

	return w.runErr
}

func (w *Worker) ensureWorkTable(ctx context.Context) error {
	if err := w.store.EnsureUniqueIndex(ctx, "collection", "field"); err != nil {
		return err
	}

	wt := types.WorkTable{
		Collection: w.collection,
		Field:      w.cfg.FieldName,
		Lock:       false,
		TS:         time.Now(),
	}

	err := w.store.InsertUnique(ctx, wt)
	if err != nil && !errors.Is(err, types.ErrDuplicateKey) {
		return err
	}

	return nil
}

func (w *Worker) initUnits(ctx context.Context) ([]types.Unit, error) {
	strategy := splitfinder.Choose(w.store)
	ranges, err := strategy.Compute(ctx, w.store, w.cfg.FieldName, w.cfg.NumUnits)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	units := make([]types.Unit, len(ranges))
	for i, r := range ranges {
		units[i] = types.Unit{Range: r, Status: types.StatusOpen, TS: now}
	}

	return units, nil
}

// run is the worker's long-running processing loop, spawned once from
// Start. It owns the lifetime of w.done: every exit path, including a
// fatal error, closes it exactly once.
func (w *Worker) run(ctx context.Context, idx int, cleanup bool, r types.Range) {
	defer close(w.done)

	if err := w.hooks.StartProcessing(ctx); err != nil {
		w.runErr = fmt.Errorf("start processing hook: %w", err)
		w.state.Set(WorkerDone)

		return
	}

	for {
		unitStart := time.Now()

		var err error
		if cleanup {
			w.state.Set(WorkerCleaningUp)
			err = w.hooks.Cleanup(ctx, r)
		} else {
			w.state.Set(WorkerProcessing)
			err = w.processUnit(ctx, idx, r)
		}

		if errors.Is(err, types.ErrFired) {
			w.handleFired(ctx, r)

			return
		}
		if err != nil {
			w.runErr = err
			w.state.Set(WorkerDone)

			return
		}

		w.metrics.RecordUnitCompleted(cleanup, time.Since(unitStart))
		w.publishEvent(ctx, "unit_completed", r)

		nextIdx, nextCleanup, nextRange, ok, finErr := w.finishUnitAndPickNext(ctx, idx, cleanup)
		if finErr != nil {
			w.runErr = finErr
			w.state.Set(WorkerDone)

			return
		}
		if !ok {
			break
		}

		idx, cleanup, r = nextIdx, nextCleanup, nextRange
	}

	if err := w.hooks.FinishProcessing(ctx); err != nil {
		w.logger.Error("finish processing hook failed", "error", err)
	}
	w.state.Set(WorkerDone)
}

func (w *Worker) handleFired(ctx context.Context, r types.Range) {
	w.state.Set(WorkerFired)
	w.metrics.RecordFired()
	w.publishEvent(ctx, "fired", r)

	if err := w.hooks.Fired(ctx, r); err != nil {
		w.logger.Error("fired hook failed", "error", err)
	}
	w.state.Set(WorkerDone)
}

// processUnit scans r's documents in ascending field order, calling the
// Process hook for each and heartbeating at most once per
// HeartbeatInterval. It returns types.ErrFired if a heartbeat discovers
// the unit was reassigned.
func (w *Worker) processUnit(ctx context.Context, idx int, r types.Range) error {
	if err := w.hooks.StartUnit(ctx, r); err != nil {
		return fmt.Errorf("start unit hook: %w", err)
	}

	filter := rangeFilter(w.cfg.FieldName, r)
	cur, err := w.store.Find(ctx, filter, w.cfg.FieldName, true)
	if err != nil {
		return fmt.Errorf("open range cursor: %w", err)
	}
	defer cur.Close(ctx)

	lastHeartbeat := time.Now()
	for cur.Next(ctx) {
		var raw bson.Raw
		if err := cur.Decode(&raw); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		if err := w.hooks.Process(ctx, raw); err != nil {
			return fmt.Errorf("process hook: %w", err)
		}
		w.metrics.RecordDocumentProcessed()

		if time.Since(lastHeartbeat) >= w.cfg.HeartbeatInterval {
			if err := w.heartbeat(ctx, idx); err != nil {
				return err
			}
			lastHeartbeat = time.Now()
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("range cursor: %w", err)
	}

	if err := w.hooks.FinishUnit(ctx, r); err != nil {
		return fmt.Errorf("finish unit hook: %w", err)
	}

	return nil
}

// heartbeat re-acquires the lease, confirms idx is still owned by this
// worker, refreshes its timestamp, and releases. A mismatch means a peer
// reclaimed the unit as stale; it returns types.ErrFired in that case.
func (w *Worker) heartbeat(ctx context.Context, idx int) error {
	table, err := w.lease.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("heartbeat acquire lease: %w", err)
	}

	if idx >= len(table.Units) || table.Units[idx].Owner != w.id {
		_ = w.lease.Release(ctx, table)
		w.metrics.RecordHeartbeat(false)

		return types.ErrFired
	}

	table.Units[idx].TS = time.Now()
	w.metrics.RecordHeartbeat(true)

	if err := w.lease.Release(ctx, table); err != nil {
		return fmt.Errorf("heartbeat release lease: %w", err)
	}

	return nil
}

// finishUnitAndPickNext marks the unit at idx complete (or reopens it,
// on a cleanup pass), then picks the next unit, all under a single lease
// acquisition.
func (w *Worker) finishUnitAndPickNext(ctx context.Context, idx int, cleanup bool) (nextIdx int, nextCleanup bool, r types.Range, ok bool, err error) {
	table, err := w.lease.Acquire(ctx)
	if err != nil {
		return 0, false, types.Range{}, false, fmt.Errorf("acquire lease to mark complete: %w", err)
	}

	picker.MarkComplete(table, idx, cleanup, time.Now())

	nextIdx, nextCleanup, ok = picker.Pick(table, w.id, time.Now(), w.pickerCfg)
	if ok {
		w.metrics.RecordUnitPicked(nextCleanup)
		r = table.Units[nextIdx].Range
	}

	if err := w.lease.Release(ctx, table); err != nil {
		return 0, false, types.Range{}, false, fmt.Errorf("release lease after mark complete: %w", err)
	}

	return nextIdx, nextCleanup, r, ok, nil
}

// rangeFilter builds the store filter selecting documents whose field
// value falls in r's half-open range.
func rangeFilter(field string, r types.Range) bson.D {
	cond := bson.D{}
	if r.Lower != nil {
		cond = append(cond, bson.E{Key: "$gte", Value: r.Lower})
	}
	if r.Upper != nil {
		cond = append(cond, bson.E{Key: "$lt", Value: r.Upper})
	}
	if len(cond) == 0 {
		return bson.D{}
	}

	return bson.D{{Key: field, Value: cond}}
}

// publishEvent is a no-op when no EventPublisher was configured, and
// swallows publish errors otherwise: delivery is never load-bearing.
func (w *Worker) publishEvent(ctx context.Context, event string, r types.Range) {
	if w.pub == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"worker": w.id,
		"event":  event,
		"lower":  r.Lower,
		"upper":  r.Upper,
	})
	if err != nil {
		return
	}

	if err := w.pub.Publish(ctx, "workers."+event, payload); err != nil {
		if notify.IsConnectivityError(err) {
			w.logger.Debug("event publish skipped: notifier unreachable", "event", event, "error", err)
		} else {
			w.logger.Warn("event publish failed", "event", event, "error", err)
		}
	}
}
