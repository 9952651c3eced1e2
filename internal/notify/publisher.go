// Package notify provides a best-effort NATS publisher for the worker
// loop's operational events. It sits entirely outside the coordination
// protocol's correctness boundary: nothing waits on delivery, and a
// disconnected or unreachable NATS server only costs a log line.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/drmirror/workers/types"
)

// Publisher adapts a *nats.Conn to types.EventPublisher, prefixing every
// subject with a configured namespace.
type Publisher struct {
	nc     *nats.Conn
	prefix string
}

// Compile-time assertion that Publisher implements EventPublisher.
var _ types.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a Publisher that publishes under "<prefix>.<subject>".
// An empty prefix publishes subjects unchanged.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return &Publisher{nc: nc, prefix: prefix}
}

// Publish sends payload on subject (prefixed), returning an error only
// when the underlying connection rejects the publish outright (e.g. not
// connected); callers are expected to log and continue rather than
// propagate this into the worker loop.
func (p *Publisher) Publish(ctx context.Context, subject string, payload []byte) error {
	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}

	if err := p.nc.Publish(full, payload); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}

	return nil
}

// IsConnectivityError reports whether err represents a transient NATS
// connectivity problem (as opposed to a malformed subject or payload),
// so callers can decide whether retrying later is worthwhile.
func IsConnectivityError(err error) bool {
	for _, target := range []error{
		nats.ErrConnectionClosed, nats.ErrConnectionDraining, nats.ErrDisconnected,
		nats.ErrNoServers, nats.ErrTimeout,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
