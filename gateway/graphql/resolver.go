package graphql

import (
	"context"
	"time"

	"github.com/fermi-controls/extapi-acsys/bridge"
)

// AcquisitionSource streams and samples device readings.
// *bridge.AcquisitionBridge implements it.
type AcquisitionSource interface {
	Subscribe(ctx context.Context, drfs []string) <-chan bridge.Reading
	Snapshot(ctx context.Context, drfs []string) []bridge.Reading
}

// DeviceInfoSource answers device metadata queries.
// *bridge.DeviceInfoBridge implements it.
type DeviceInfoSource interface {
	Query(ctx context.Context, devices []string) []bridge.Result[bridge.DeviceInfo]
}

// ClockSource streams clock events. *bridge.ClockBridge implements it.
type ClockSource interface {
	Subscribe(ctx context.Context, events []int32) <-chan bridge.ClockEvent
}

// Sources bundles the bridges the resolver reads from
type Sources struct {
	Acquisition AcquisitionSource
	DeviceInfo  DeviceInfoSource
	Clock       ClockSource
}

// MetricsRecorder interface for recording GraphQL operation metrics
type MetricsRecorder interface {
	RecordMetrics(ctx context.Context, operation string, fn func() error) error
	TrackSubscription(operation string) (done func())
}

// Resolver maps the root fields of the schema onto the bridges
type Resolver struct {
	sources         Sources
	metricsRecorder MetricsRecorder // Optional metrics recording
	timeout         time.Duration
	snapshotTimeout time.Duration
}

// NewResolver creates a resolver over sources. Zero timeouts leave the
// request context unbounded.
func NewResolver(sources Sources, metricsRecorder MetricsRecorder, timeout, snapshotTimeout time.Duration) *Resolver {
	return &Resolver{
		sources:         sources,
		metricsRecorder: metricsRecorder,
		timeout:         timeout,
		snapshotTimeout: snapshotTimeout,
	}
}

// DeviceInfo returns one result per device, in request order
func (r *Resolver) DeviceInfo(ctx context.Context, devices []string) ([]bridge.Result[bridge.DeviceInfo], error) {
	if r.sources.DeviceInfo == nil {
		return nil, errNotServed("deviceInfo")
	}

	var results []bridge.Result[bridge.DeviceInfo]
	err := r.record(ctx, "deviceInfo", func() error {
		ctx, cancel := withTimeout(ctx, r.timeout)
		defer cancel()
		results = r.sources.DeviceInfo.Query(ctx, devices)
		return ctx.Err()
	})
	if results == nil {
		return nil, err
	}
	return results, nil
}

// AcceleratorData returns the first reading of each device. Devices with no
// reading before the snapshot timeout are left out.
func (r *Resolver) AcceleratorData(ctx context.Context, drfs []string) ([]bridge.Reading, error) {
	if r.sources.Acquisition == nil {
		return nil, errNotServed("acceleratorData")
	}

	var readings []bridge.Reading
	err := r.record(ctx, "acceleratorData", func() error {
		ctx, cancel := withTimeout(ctx, r.snapshotTimeout)
		defer cancel()
		readings = r.sources.Acquisition.Snapshot(ctx, drfs)
		if len(readings) < len(drfs) && ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	})
	if readings == nil {
		return nil, err
	}
	return readings, nil
}

// SubscribeAcceleratorData streams readings until ctx is cancelled or the
// acquisition ends
func (r *Resolver) SubscribeAcceleratorData(ctx context.Context, drfs []string) (<-chan bridge.Reading, error) {
	if r.sources.Acquisition == nil {
		return nil, errNotServed("acceleratorData")
	}
	var ch <-chan bridge.Reading
	_ = r.record(ctx, "subscribe.acceleratorData", func() error {
		ch = r.sources.Acquisition.Subscribe(ctx, drfs)
		return nil
	})
	return ch, nil
}

// ReportEvents streams clock events until ctx is cancelled or the
// subscription ends
func (r *Resolver) ReportEvents(ctx context.Context, events []int32) (<-chan bridge.ClockEvent, error) {
	if r.sources.Clock == nil {
		return nil, errNotServed("reportEvents")
	}
	var ch <-chan bridge.ClockEvent
	_ = r.record(ctx, "subscribe.reportEvents", func() error {
		ch = r.sources.Clock.Subscribe(ctx, events)
		return nil
	})
	return ch, nil
}

// trackSubscription marks a subscription active until the returned func runs
func (r *Resolver) trackSubscription(operation string) func() {
	if r.metricsRecorder == nil {
		return func() {}
	}
	return r.metricsRecorder.TrackSubscription(operation)
}

func (r *Resolver) record(ctx context.Context, operation string, fn func() error) error {
	if r.metricsRecorder != nil {
		return r.metricsRecorder.RecordMetrics(ctx, operation, fn)
	}
	return fn()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
