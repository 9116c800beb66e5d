package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/backend/backendtest"
	"github.com/fermi-controls/extapi-acsys/errors"
	"github.com/fermi-controls/extapi-acsys/metric"
)

func TestClockBridge_ConvertsEvents(t *testing.T) {
	clock := &fakeClock{events: []*backend.EventInfo{
		{Stamp: &backend.Timestamp{Seconds: 10, Nanos: 500_000_000}, Event: 0x8f},
		{Stamp: &backend.Timestamp{Seconds: 10, Nanos: 999_999}, Event: 0x1_0002},
	}}
	b := NewClockBridge(clock, nil, nil)

	events := collect(t, b.Subscribe(context.Background(), []int32{0x8f, 2}))
	require.Len(t, events, 2)

	assert.Equal(t, int64(10_500), events[0].Timestamp.UnixMilli())
	assert.Equal(t, uint16(0x8f), events[0].Event)

	assert.Equal(t, int64(10_000), events[1].Timestamp.UnixMilli())
	assert.Equal(t, uint16(2), events[1].Event)
}

func TestClockBridge_DropsEventsWithoutStamp(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	clock := &fakeClock{events: []*backend.EventInfo{
		{Event: 2},
		{Stamp: &backend.Timestamp{Seconds: 1}, Event: 3},
	}}
	b := NewClockBridge(clock, nil, registry)

	events := collect(t, b.Subscribe(context.Background(), []int32{2, 3}))
	require.Len(t, events, 1)
	assert.Equal(t, uint16(3), events[0].Event)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.dropped))
}

func TestClockBridge_Failures(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		b := NewClockBridge(&fakeClock{openErr: errors.ErrBackendUnavailable}, nil, nil)
		assert.Empty(t, collect(t, b.Subscribe(context.Background(), []int32{2})))
	})

	t.Run("interrupted", func(t *testing.T) {
		b := NewClockBridge(&fakeClock{
			events: []*backend.EventInfo{{Stamp: &backend.Timestamp{}, Event: 2}},
			end:    errors.ErrTransportInterrupted,
		}, nil, nil)
		assert.Len(t, collect(t, b.Subscribe(context.Background(), []int32{2})), 1)
	})

	t.Run("unreachable", func(t *testing.T) {
		b := NewClockBridge(backend.NewClockClient(backendtest.Unreachable(t)), nil, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.Empty(t, collect(t, b.Subscribe(ctx, []int32{2})))
	})
}

func TestClockBridge_CancelReleasesSubscription(t *testing.T) {
	released := make(chan struct{})
	srv := backendtest.NewServer(t, backendtest.WithEvents(
		func(ctx context.Context, req *backend.SubscribeReq, send func(*backend.EventInfo) error) error {
			defer close(released)
			for _, e := range req.Events {
				if err := send(&backend.EventInfo{Stamp: &backend.Timestamp{Seconds: 5}, Event: e}); err != nil {
					return err
				}
			}
			<-ctx.Done()
			return ctx.Err()
		}))
	b := NewClockBridge(srv.Clock, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx, []int32{0x02})

	select {
	case ev := <-ch:
		assert.Equal(t, uint16(2), ev.Event)
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not released after cancel")
	}
	assert.Empty(t, collect(t, ch))

	subs := srv.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, []int32{2}, subs[0].Events)
}
