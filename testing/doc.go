// Package testing provides test utilities for the workers library: a
// logger that writes through testing.T, and an embedded NATS server for
// exercising the optional notify publisher without external dependencies.
package testing
