package events

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func TestAsyncBusDeliversToSubscribers(t *testing.T) {
	bus := NewAsyncBus(2, 16)
	var got sync.Map
	var calls atomic.Int32
	bus.Subscribe(FriendRequestCreated, func(ctx context.Context, ev Event) error {
		got.Store(ev.FriendRequest.RequestID, true)
		calls.Add(1)
		return nil
	})

	req := models.NewFriendRequest("a", "b")
	bus.Publish(context.Background(), NewFriendRequestEvent(FriendRequestCreated, req))
	bus.Publish(context.Background(), NewFriendRequestEvent(FriendRequestRejected, req))

	require.NoError(t, bus.Close(context.Background()))
	require.EqualValues(t, 1, calls.Load())
	_, ok := got.Load(req.ID)
	require.True(t, ok)
}

func TestAsyncBusHandlersOutliveCancelledContext(t *testing.T) {
	bus := NewAsyncBus(1, 4)
	errCh := make(chan error, 1)
	bus.Subscribe(MessageCreated, func(ctx context.Context, ev Event) error {
		errCh <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, Event{Kind: MessageCreated, Message: &MessagePayload{}})
	require.NoError(t, bus.Close(context.Background()))
	require.NoError(t, <-errCh)
}

func TestAsyncBusDropsWhenFull(t *testing.T) {
	bus := NewAsyncBus(1, 1)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	bus.Subscribe(FriendRequestAccepted, func(ctx context.Context, ev Event) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	before := testutil.ToFloat64(metrics.EventBusDroppedTotal.WithLabelValues(string(FriendRequestAccepted)))
	ev := Event{Kind: FriendRequestAccepted, FriendRequest: &FriendRequestPayload{}}
	bus.Publish(context.Background(), ev)
	<-started
	bus.Publish(context.Background(), ev) // fills the queue
	bus.Publish(context.Background(), ev) // dropped

	after := testutil.ToFloat64(metrics.EventBusDroppedTotal.WithLabelValues(string(FriendRequestAccepted)))
	require.Equal(t, before+1, after)

	close(release)
	require.NoError(t, bus.Close(context.Background()))
	require.ErrorIs(t, bus.Close(context.Background()), ErrBusClosed)
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	bus := NewSyncBus()
	var second bool
	bus.Subscribe(FriendRequestCancelled, func(ctx context.Context, ev Event) error { panic("boom") })
	bus.Subscribe(FriendRequestCancelled, func(ctx context.Context, ev Event) error {
		second = true
		return errors.New("logged, not returned")
	})

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Kind: FriendRequestCancelled, FriendRequest: &FriendRequestPayload{}})
	})
	require.True(t, second)
}

func TestCloseHonoursDeadline(t *testing.T) {
	bus := NewAsyncBus(1, 1)
	block := make(chan struct{})
	defer close(block)
	bus.Subscribe(MessageCreated, func(ctx context.Context, ev Event) error {
		<-block
		return nil
	})
	bus.Publish(context.Background(), Event{Kind: MessageCreated, Message: &MessagePayload{}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, bus.Close(ctx), context.DeadlineExceeded)
}
