package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/metric"
	"github.com/fermi-controls/extapi-acsys/pkg/timestamp"
)

// ClockSubscriber opens clock event subscriptions. *backend.ClockClient
// implements it.
type ClockSubscriber interface {
	Subscribe(ctx context.Context, events []int32) (backend.EventStream, error)
}

// ClockEvent is one occurrence of a clock event.
type ClockEvent struct {
	Timestamp time.Time
	Event     uint16
}

// ClockBridge streams clock events.
type ClockBridge struct {
	clock   ClockSubscriber
	logger  *slog.Logger
	metrics *bridgeMetrics
}

// NewClockBridge creates a bridge over clock. registry may be nil.
func NewClockBridge(clock ClockSubscriber, logger *slog.Logger, registry *metric.MetricsRegistry) *ClockBridge {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "clock-bridge")
	return &ClockBridge{
		clock:   clock,
		logger:  logger,
		metrics: newBridgeMetrics(registry, "clock", "clock", logger),
	}
}

// Subscribe opens one subscription for the event codes and returns the
// events in backend arrival order. The channel closes under the same
// conditions as AcquisitionBridge.Subscribe.
func (b *ClockBridge) Subscribe(ctx context.Context, events []int32) <-chan ClockEvent {
	out := make(chan ClockEvent)
	codes := append([]int32(nil), events...)

	go func() {
		defer close(out)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		logger := b.logger.With("events", len(codes))
		stream, err := b.clock.Subscribe(ctx, codes)
		if err != nil {
			b.metrics.callFailed()
			connectionFailed(ctx, logger, err)
			return
		}
		closed := b.metrics.streamOpened()

		for {
			item, err := stream.Recv()
			if err != nil {
				closed(streamEnded(ctx, logger, err))
				return
			}
			if ctx.Err() != nil {
				closed(streamEnded(ctx, logger, nil))
				return
			}

			if item.Stamp == nil {
				b.metrics.drop()
				logger.Warn("clock event without timestamp dropped", "event", item.Event)
				continue
			}
			b.metrics.item(nil)

			ev := ClockEvent{
				Timestamp: timestamp.FromStamp(item.Stamp.Seconds, item.Stamp.Nanos),
				Event:     uint16(item.Event),
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				closed(streamEnded(ctx, logger, nil))
				return
			}
		}
	}()

	return out
}
