package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenCmd_ReceivesEvent(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(ChangedEvent, "config.yaml")

	msg := ListenCmd(ctx, ch)()

	event, ok := msg.(Event[string])
	require.True(t, ok, "msg should be Event[string]")
	require.Equal(t, "config.yaml", event.Payload)
}

func TestListenCmd_ContextCancelled(t *testing.T) {
	ch := make(chan Event[string])
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Nil(t, ListenCmd(ctx, ch)())
}

func TestListenCmd_ChannelClosed(t *testing.T) {
	ch := make(chan Event[string])
	close(ch)

	require.Nil(t, ListenCmd(context.Background(), ch)())
}

func TestContinuousListener_Listen(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewContinuousListener[int](ctx, broker)

	broker.Publish(ChangedEvent, 1)
	broker.Publish(RemovedEvent, 2)
	broker.Publish(ErrorEvent, 3)

	for i, want := range []EventType{ChangedEvent, RemovedEvent, ErrorEvent} {
		event, ok := listener.Listen()().(Event[int])
		require.True(t, ok)
		require.Equal(t, i+1, event.Payload)
		require.Equal(t, want, event.Type)
	}
}
