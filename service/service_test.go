package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/service"
)

func TestBroadcasterDeliversToSubscriber(t *testing.T) {
	b := service.NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe()
	require.Eventually(t, func() bool { return b.SubscriptionCount() == 1 }, time.Second, time.Millisecond)

	b.Broadcast(core.TraceEvent{Kind: core.TraceHalted, PC: 0x10, Tick: 5})

	select {
	case ev := <-sub.Channel:
		require.Equal(t, core.TraceHalted, ev.Kind)
		require.Equal(t, uint16(0x10), ev.PC)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := service.NewBroadcaster()
	defer b.Close()

	sub := b.Subscribe()
	b.Unsubscribe(sub)

	_, ok := <-sub.Channel
	require.False(t, ok)
}

func TestServerSinkIsUsableAsTraceSinkWithNoSubscribers(t *testing.T) {
	srv := service.NewServer("127.0.0.1:0")
	require.Equal(t, 0, srv.SubscriptionCount())

	var sink core.TraceSink = srv.Sink()
	require.NotNil(t, sink)
	sink(core.TraceEvent{Kind: core.TraceRetired, PC: 2})
}
