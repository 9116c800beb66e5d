package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/metric"
	"github.com/fermi-controls/extapi-acsys/pkg/timestamp"
)

// Acquirer opens DPM acquisitions. *backend.DPMClient implements it.
type Acquirer interface {
	StartAcquisition(ctx context.Context, sessionID string, drfs []string) (backend.ReadingStream, error)
}

// Reading is one translated backend reading. When Err is nil, Name is the
// requested reference at position RefID and Value is set. When Err is set
// the reading is an item-level failure: Value is nil and Name is empty if
// RefID was outside the request list.
type Reading struct {
	RefID     int
	Cycle     uint64
	Timestamp time.Time
	Name      string
	Value     Value
	Err       error
}

// AcquisitionBridge streams DPM readings for a list of device references.
type AcquisitionBridge struct {
	dpm     Acquirer
	logger  *slog.Logger
	metrics *bridgeMetrics
	now     func() time.Time
}

// NewAcquisitionBridge creates a bridge over dpm. registry may be nil.
func NewAcquisitionBridge(dpm Acquirer, logger *slog.Logger, registry *metric.MetricsRegistry) *AcquisitionBridge {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "acquisition-bridge")
	return &AcquisitionBridge{
		dpm:     dpm,
		logger:  logger,
		metrics: newBridgeMetrics(registry, "acquisition", "dpm", logger),
		now:     time.Now,
	}
}

// Subscribe opens one acquisition for drfs and returns its readings in
// backend arrival order. The channel is closed when the backend cannot be
// reached, when the stream ends or fails, or when ctx is cancelled; the
// backend call is released in every case.
func (b *AcquisitionBridge) Subscribe(ctx context.Context, drfs []string) <-chan Reading {
	out := make(chan Reading)
	table := NewIndexTable(drfs)

	go func() {
		defer close(out)
		b.run(ctx, table, func(r Reading) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()

	return out
}

// Snapshot opens one acquisition for drfs and returns the first reading
// reported for each position, ordered by RefID. It returns when every
// position has reported, when the stream ends, or when ctx is done. A
// backend that cannot be reached yields an empty list.
func (b *AcquisitionBridge) Snapshot(ctx context.Context, drfs []string) []Reading {
	table := NewIndexTable(drfs)
	if table.Len() == 0 {
		return []Reading{}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]*Reading, table.Len())
	filled := 0
	b.run(ctx, table, func(r Reading) bool {
		if r.RefID < 0 || r.RefID >= len(slots) {
			return true
		}
		if slots[r.RefID] == nil {
			slots[r.RefID] = &r
			filled++
		}
		return filled < len(slots)
	})

	readings := make([]Reading, 0, filled)
	for _, r := range slots {
		if r != nil {
			readings = append(readings, *r)
		}
	}
	return readings
}

// run drives one acquisition, handing each translated reading to emit until
// emit returns false or the stream stops.
func (b *AcquisitionBridge) run(ctx context.Context, table IndexTable, emit func(Reading) bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := uuid.NewString()
	logger := b.logger.With("session", session, "devices", table.Len())

	stream, err := b.dpm.StartAcquisition(ctx, session, table.Refs())
	if err != nil {
		b.metrics.callFailed()
		connectionFailed(ctx, logger, err)
		return
	}
	closed := b.metrics.streamOpened()
	logger.Debug("acquisition opened")

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

		reading := b.translate(table, item)
		b.metrics.item(reading.Err)
		if reading.Err != nil {
			logger.Debug("item-level failure", "ref_id", reading.RefID, "error", reading.Err)
		}

		if !emit(reading) {
			closed(streamEnded(ctx, logger, nil))
			return
		}
	}
}

func (b *AcquisitionBridge) translate(table IndexTable, item *backend.Reading) Reading {
	r := Reading{
		RefID: int(item.Index),
		Cycle: item.Cycle,
	}
	if item.Stamp != nil {
		r.Timestamp = timestamp.FromStamp(item.Stamp.Seconds, item.Stamp.Nanos)
	} else {
		r.Timestamp = timestamp.Truncate(b.now())
	}

	name, err := table.Resolve(r.RefID)
	if err != nil {
		r.Err = err
		return r
	}
	r.Name = name
	r.Value, r.Err = Translate(item.Data)
	return r
}
