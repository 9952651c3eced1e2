// Package statebus is an in-process fan-out of a worker's lifecycle state,
// used to implement Worker.WaitState without polling.
package statebus

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// Bus broadcasts State changes to any number of subscribers.
type Bus[S comparable] struct {
	current          atomic.Value
	subscribers      *xsync.Map[uint64, *subscriber[S]]
	nextSubscriberID atomic.Uint64
}

type subscriber[S comparable] struct {
	ch chan S
}

func (s *subscriber[S]) trySend(v S) {
	select {
	case s.ch <- v:
		return
	default:
	}
	// slow subscriber: drop the oldest buffered state rather than block
	// the worker loop, so the most recent state is always delivered
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- v:
	default:
	}
}

func (s *subscriber[S]) close() {
	close(s.ch)
}

// New creates a Bus initialized to the given state.
func New[S comparable](initial S) *Bus[S] {
	b := &Bus[S]{subscribers: xsync.NewMap[uint64, *subscriber[S]]()}
	b.current.Store(initial)

	return b
}

// Current returns the last state set via Set.
func (b *Bus[S]) Current() S {
	return b.current.Load().(S)
}

// Set updates the current state and notifies every subscriber.
func (b *Bus[S]) Set(v S) {
	b.current.Store(v)
	b.subscribers.Range(func(_ uint64, sub *subscriber[S]) bool {
		sub.trySend(v)

		return true
	})
}

// Subscribe returns a channel that receives the current state immediately
// and then each state set via Set. The channel buffers four states; when a
// subscriber falls behind, the oldest buffered state is dropped, so the
// most recent state is always delivered. The returned func unsubscribes
// and closes the channel.
func (b *Bus[S]) Subscribe() (<-chan S, func()) {
	id := b.nextSubscriberID.Add(1)
	sub := &subscriber[S]{ch: make(chan S, 4)}
	b.subscribers.Store(id, sub)
	sub.trySend(b.Current())

	return sub.ch, func() {
		if s, ok := b.subscribers.LoadAndDelete(id); ok {
			s.close()
		}
	}
}
