package bridge

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/fermi-controls/extapi-acsys/backend"
)

// fakeAcquirer serves a fixed list of readings for every acquisition.
type fakeAcquirer struct {
	readings []*backend.Reading
	end      error // returned after readings; io.EOF when nil
	block    bool  // wait for cancellation instead of ending
	openErr  error

	sessions chan string
	drfs     [][]string
}

func (f *fakeAcquirer) StartAcquisition(ctx context.Context, sessionID string, drfs []string) (backend.ReadingStream, error) {
	if f.sessions != nil {
		f.sessions <- sessionID
	}
	f.drfs = append(f.drfs, drfs)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &sliceStream[backend.Reading]{ctx: ctx, items: f.readings, end: f.end, block: f.block}, nil
}

// fakeClock serves a fixed list of events for every subscription.
type fakeClock struct {
	events  []*backend.EventInfo
	end     error
	openErr error
}

func (f *fakeClock) Subscribe(ctx context.Context, _ []int32) (backend.EventStream, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &sliceStream[backend.EventInfo]{ctx: ctx, items: f.events, end: f.end}, nil
}

type sliceStream[T any] struct {
	ctx   context.Context
	items []*T
	end   error
	block bool
}

func (s *sliceStream[T]) Recv() (*T, error) {
	if len(s.items) > 0 {
		item := s.items[0]
		s.items = s.items[1:]
		return item, nil
	}
	if s.block {
		<-s.ctx.Done()
		return nil, s.ctx.Err()
	}
	if s.end != nil {
		return nil, s.end
	}
	return nil, io.EOF
}

// fakeQuerier answers device info lookups with a fixed reply or error.
type fakeQuerier struct {
	reply func(devices []string) *backend.DeviceInfoReply
	err   error
	calls [][]string
}

func (f *fakeQuerier) GetDeviceInfo(_ context.Context, devices []string) (*backend.DeviceInfoReply, error) {
	f.calls = append(f.calls, devices)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply(devices), nil
}

func collect[T any](t *testing.T, ch <-chan T) []T {
	t.Helper()

	var items []T
	timeout := time.After(5 * time.Second)
	for {
		select {
		case item, ok := <-ch:
			if !ok {
				return items
			}
			items = append(items, item)
		case <-timeout:
			t.Fatalf("channel not closed after %d items", len(items))
			return nil
		}
	}
}

func scalarReading(index uint32, v float64) *backend.Reading {
	return &backend.Reading{
		Index: index,
		Cycle: 1,
		Stamp: &backend.Timestamp{Seconds: 1_700_000_000},
		Data:  &backend.Data{Value: backend.DataScalar{Scalar: v}},
	}
}

func ptr[T any](v T) *T {
	return &v
}
