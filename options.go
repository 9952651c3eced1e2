package workers

// Option configures a Worker with optional dependencies. Unset options
// fall back to defaults: no-op hooks and metrics (internal/hooks.NewNop,
// internal/metrics.NopMetrics) and a slog-backed logger.
type Option func(*workerOptions)

// workerOptions holds optional Worker configuration collected from
// Option values before NewWorker assembles the final Worker.
type workerOptions struct {
	hooks     *Hooks
	metrics   MetricsCollector
	logger    Logger
	publisher EventPublisher
	storeName string
}

// WithHooks sets lifecycle event hooks. Any field left nil falls back to
// a no-op, except Process, which NewWorker requires.
//
// Example:
//
//	hooks := &workers.Hooks{
//	    Process: func(ctx context.Context, doc []byte) error {
//	        return handle(doc)
//	    },
//	}
//	w, err := workers.NewWorker(cfg, store, workers.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *workerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector. Defaults to a no-op collector.
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "myapp")
//	w, err := workers.NewWorker(cfg, store, workers.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *workerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger. Defaults to a slog-backed logger writing to
// the default handler.
//
// Example:
//
//	logger := logging.NewSlog(slog.Default())
//	w, err := workers.NewWorker(cfg, store, workers.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *workerOptions) {
		o.logger = logger
	}
}

// WithEventPublisher sets a best-effort publisher for operational events
// (lease recovered, unit fired, unit completed). The worker loop never
// waits on or fails from a publish error.
//
// Example:
//
//	pub := notify.NewPublisher(nc, "workers.events")
//	w, err := workers.NewWorker(cfg, store, workers.WithEventPublisher(pub))
func WithEventPublisher(pub EventPublisher) Option {
	return func(o *workerOptions) {
		o.publisher = pub
	}
}

// WithStoreName overrides the logical collection name used as the work
// table's coordination key (the "collection" field of the shared
// record). Config.CollectionName is used when this option is absent;
// set it to coordinate multiple logical partitions over one physical
// collection.
func WithStoreName(name string) Option {
	return func(o *workerOptions) {
		o.storeName = name
	}
}
