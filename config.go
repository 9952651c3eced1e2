package workers

import (
	"fmt"
	"time"
)

// ============================================================================
// Timing Configuration
// ============================================================================
//
// The coordination protocol has three timing tunables with an ordering
// constraint that ValidateWithWarnings checks (Validate does not):
//
// ┌─────────────────────────────────────────────────────────────────────────┐
// │ BackoffBase      - how long a blocked Acquire waits before retrying     │
// │ MaxLockAge       - how old an unreleased lock must be to be "stuck"     │
// │ HeartbeatInterval / MaxMissedHeartbeats - how a unit's staleness is set │
// └─────────────────────────────────────────────────────────────────────────┘
//
// A unit is considered abandoned once it has gone
// MaxMissedHeartbeats * HeartbeatInterval without a heartbeat write. Set
// MaxLockAge well below that window: it only guards the short-lived work
// table lease, not a unit's processing time.

// Config is the configuration for a Worker.
//
// All duration fields accept standard Go duration strings like "100ms",
// "10s" when loaded from YAML.
type Config struct {
	// DatabaseName is the database holding both the data collection and
	// the work table.
	DatabaseName string `yaml:"databaseName"`

	// CollectionName is the collection being scanned.
	CollectionName string `yaml:"collectionName"`

	// FieldName is the field units are split on; it must have a total
	// order and should be indexed for FieldName ascending.
	FieldName string `yaml:"fieldName"`

	// WorkTableName is the conventional name of the collection holding
	// work table records. Defaults to "work". Worker does not read it: the
	// work table lives in whichever collection the StoreAdapter was built
	// with.
	WorkTableName string `yaml:"workTableName"`

	// NumUnits is the number of ranges to partition FieldName's key space
	// into at initialization. Strategy B may produce a different actual
	// count; see internal/splitfinder.
	NumUnits int `yaml:"numUnits"`

	// BackoffBase is the base retry interval when the work table lease is
	// held by someone else. The actual wait is jittered to
	// [0.9, 1.1] * BackoffBase. Default: 100ms.
	BackoffBase time.Duration `yaml:"backoffBase"`

	// MaxLockAge is how long the work table lease may be held before a
	// contender considers it stuck and clears it. Default: 1s.
	MaxLockAge time.Duration `yaml:"maxLockAge"`

	// HeartbeatInterval is how often a worker refreshes its current
	// unit's timestamp while processing it. Default: 10s.
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`

	// MaxMissedHeartbeats is how many HeartbeatIntervals may elapse
	// without a heartbeat before a unit is considered abandoned and
	// eligible for cleanup. Default: 2.
	MaxMissedHeartbeats int `yaml:"maxMissedHeartbeats"`

	// OperationTimeout is a per-store-call time bound. Default: 10s.
	// Worker does not apply it: store calls are bounded only by the
	// context they run under (StartupTimeout during Start, and no deadline
	// in the processing loop).
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// StartupTimeout bounds Start: ensuring the work table, acquiring the
	// lease, and initializing units if needed. Default: 30s.
	StartupTimeout time.Duration `yaml:"startupTimeout"`

	// ShutdownTimeout is a time bound for shutting a worker down.
	// Default: 10s. Worker.Stop does not apply it: Stop waits for the
	// processing goroutine for as long as the ctx passed to it allows.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DefaultConfig returns a Config with production defaults, matching the
// protocol's original tunables.
func DefaultConfig() Config {
	return Config{
		WorkTableName:       "work",
		NumUnits:            4,
		BackoffBase:         100 * time.Millisecond,
		MaxLockAge:          1 * time.Second,
		HeartbeatInterval:   10 * time.Second,
		MaxMissedHeartbeats: 2,
		OperationTimeout:    10 * time.Second,
		StartupTimeout:      30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
	}
}

// SetDefaults fills in zero-valued fields with production defaults.
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.WorkTableName == "" {
		cfg.WorkTableName = defaults.WorkTableName
	}
	if cfg.NumUnits == 0 {
		cfg.NumUnits = defaults.NumUnits
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = defaults.BackoffBase
	}
	if cfg.MaxLockAge == 0 {
		cfg.MaxLockAge = defaults.MaxLockAge
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.MaxMissedHeartbeats == 0 {
		cfg.MaxMissedHeartbeats = defaults.MaxMissedHeartbeats
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// Validate checks configuration constraints and returns an error
// describing the first one violated, wrapped in ErrInvalidConfig.
//
// Hard rules:
//   - DatabaseName, CollectionName, FieldName must be set
//   - NumUnits >= 1
//   - BackoffBase, MaxLockAge, HeartbeatInterval > 0
//   - MaxMissedHeartbeats >= 1
//
// Validate does not compare MaxLockAge with
// MaxMissedHeartbeats*HeartbeatInterval; ValidateWithWarnings logs a
// warning when MaxLockAge exceeds that window.
func (cfg *Config) Validate() error {
	if cfg.DatabaseName == "" {
		return fmt.Errorf("%w: DatabaseName is required", ErrInvalidConfig)
	}
	if cfg.CollectionName == "" {
		return fmt.Errorf("%w: CollectionName is required", ErrInvalidConfig)
	}
	if cfg.FieldName == "" {
		return fmt.Errorf("%w: FieldName is required", ErrInvalidConfig)
	}
	if cfg.NumUnits < 1 {
		return fmt.Errorf("%w: NumUnits (%d) must be >= 1", ErrInvalidConfig, cfg.NumUnits)
	}
	if cfg.BackoffBase <= 0 {
		return fmt.Errorf("%w: BackoffBase must be > 0", ErrInvalidConfig)
	}
	if cfg.MaxLockAge <= 0 {
		return fmt.Errorf("%w: MaxLockAge must be > 0", ErrInvalidConfig)
	}
	if cfg.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: HeartbeatInterval must be > 0", ErrInvalidConfig)
	}
	if cfg.MaxMissedHeartbeats < 1 {
		return fmt.Errorf("%w: MaxMissedHeartbeats must be >= 1", ErrInvalidConfig)
	}

	return nil
}

// ValidateWithWarnings runs Validate and additionally logs warnings for
// non-fatal but suspicious configurations.
func (cfg *Config) ValidateWithWarnings(logger Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	staleAfter := time.Duration(cfg.MaxMissedHeartbeats) * cfg.HeartbeatInterval
	if cfg.MaxLockAge > staleAfter {
		logger.Warn(
			"MaxLockAge is not well below the unit staleness window; stuck-lock recovery may race with normal processing",
			"maxLockAge", cfg.MaxLockAge,
			"staleAfter", staleAfter,
		)
	}

	return nil
}

// TestConfig returns a configuration with fast timings for test
// execution: small NumUnits, short backoff, and a short heartbeat window
// so staleness-driven behavior can be exercised without long sleeps.
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.NumUnits = 2
	cfg.BackoffBase = 5 * time.Millisecond
	cfg.MaxLockAge = 20 * time.Millisecond
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.MaxMissedHeartbeats = 2
	cfg.OperationTimeout = time.Second
	cfg.StartupTimeout = 2 * time.Second
	cfg.ShutdownTimeout = time.Second

	return cfg
}
