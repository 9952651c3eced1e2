package statebus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesCurrentStateImmediately(t *testing.T) {
	b := New("idle")
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	select {
	case v := <-ch:
		require.Equal(t, "idle", v)
	case <-time.After(time.Second):
		t.Fatal("expected immediate current-state delivery")
	}
}

func TestSetBroadcastsToAllSubscribers(t *testing.T) {
	b := New("idle")
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	<-ch1
	<-ch2

	b.Set("running")

	require.Equal(t, "running", <-ch1)
	require.Equal(t, "running", <-ch2)
	require.Equal(t, "running", b.Current())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New(0)
	ch, unsubscribe := b.Subscribe()
	<-ch

	unsubscribe()

	_, ok := <-ch
	require.False(t, ok)
}

func TestSlowSubscriberDoesNotBlockSet(t *testing.T) {
	b := New(0)
	_, unsubscribe := b.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 10; i++ {
			b.Set(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Set blocked on a subscriber that never drains its channel")
	}
}
