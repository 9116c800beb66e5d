package graphql

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/executor"
	"github.com/stretchr/testify/require"

	"github.com/fermi-controls/extapi-acsys/bridge"
)

// feed streams items on a channel the way the bridges do. With hold set the
// channel stays open after the last item until ctx is cancelled.
func feed[T any](ctx context.Context, items []T, hold bool, cancelled func()) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				cancelled()
				return
			}
		}
		if hold {
			<-ctx.Done()
			cancelled()
		}
	}()
	return out
}

type fakeAcquisition struct {
	mu        sync.Mutex
	readings  []bridge.Reading
	hold      bool
	drfs      [][]string
	cancelled chan struct{}
	once      sync.Once
}

func newFakeAcquisition(readings ...bridge.Reading) *fakeAcquisition {
	return &fakeAcquisition{readings: readings, cancelled: make(chan struct{})}
}

func (f *fakeAcquisition) Subscribe(ctx context.Context, drfs []string) <-chan bridge.Reading {
	f.mu.Lock()
	f.drfs = append(f.drfs, drfs)
	f.mu.Unlock()
	return feed(ctx, f.readings, f.hold, func() { f.once.Do(func() { close(f.cancelled) }) })
}

func (f *fakeAcquisition) Snapshot(_ context.Context, drfs []string) []bridge.Reading {
	f.mu.Lock()
	f.drfs = append(f.drfs, drfs)
	f.mu.Unlock()
	return f.readings
}

func (f *fakeAcquisition) requests() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.drfs...)
}

type fakeDeviceInfo struct {
	mu      sync.Mutex
	results []bridge.Result[bridge.DeviceInfo]
	block   bool
	devices [][]string
}

func (f *fakeDeviceInfo) Query(ctx context.Context, devices []string) []bridge.Result[bridge.DeviceInfo] {
	f.mu.Lock()
	f.devices = append(f.devices, devices)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		out := make([]bridge.Result[bridge.DeviceInfo], len(devices))
		for i := range out {
			out[i] = bridge.Fail[bridge.DeviceInfo](ctx.Err().Error())
		}
		return out
	}
	return f.results
}

type fakeClock struct {
	mu        sync.Mutex
	events    []bridge.ClockEvent
	hold      bool
	requested [][]int32
	cancelled chan struct{}
	once      sync.Once
}

func newFakeClock(events ...bridge.ClockEvent) *fakeClock {
	return &fakeClock{events: events, cancelled: make(chan struct{})}
}

func (f *fakeClock) Subscribe(ctx context.Context, events []int32) <-chan bridge.ClockEvent {
	f.mu.Lock()
	f.requested = append(f.requested, events)
	f.mu.Unlock()
	return feed(ctx, f.events, f.hold, func() { f.once.Do(func() { close(f.cancelled) }) })
}

// fakeRecorder counts RecordMetrics calls and active subscriptions
type fakeRecorder struct {
	mu         sync.Mutex
	operations []string
	active     map[string]int
	ended      map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{active: map[string]int{}, ended: map[string]int{}}
}

func (r *fakeRecorder) RecordMetrics(_ context.Context, operation string, fn func() error) error {
	r.mu.Lock()
	r.operations = append(r.operations, operation)
	r.mu.Unlock()
	return fn()
}

func (r *fakeRecorder) TrackSubscription(operation string) func() {
	r.mu.Lock()
	r.active[operation]++
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.active[operation]--
		r.ended[operation]++
		r.mu.Unlock()
	}
}

func (r *fakeRecorder) endedCount(operation string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended[operation]
}

// testExec runs operations through gqlgen's executor the way the transports do
type testExec struct {
	exec *executor.Executor
}

func newTestExec(t *testing.T, sources Sources, recorder MetricsRecorder) *testExec {
	t.Helper()
	return newTestExecWith(t, NewResolver(sources, recorder, time.Second, 200*time.Millisecond), DefaultConfig())
}

func newTestExecWith(t *testing.T, resolver *Resolver, config Config) *testExec {
	t.Helper()
	require.NoError(t, config.Validate())
	es, err := NewExecutableSchema(resolver)
	require.NoError(t, err)
	exec := executor.New(es)
	configureExecutor(exec, config, slog.Default())
	return &testExec{exec: exec}
}

// start parses and validates p, then dispatches it. Errors found before
// dispatch come back as the only response.
func (e *testExec) start(ctx context.Context, p *graphql.RawParams) (graphql.ResponseHandler, context.Context) {
	ctx = graphql.StartOperationTrace(ctx)
	rc, errs := e.exec.CreateOperationContext(ctx, p)
	if errs != nil {
		return graphql.OneShot(e.exec.DispatchError(graphql.WithOperationContext(ctx, rc), errs)), ctx
	}
	return e.exec.DispatchOperation(ctx, rc)
}

// Execute returns the single response of a query
func (e *testExec) Execute(ctx context.Context, p *graphql.RawParams) *graphql.Response {
	responses, ctx := e.start(ctx, p)
	return responses(ctx)
}

// Subscribe returns a function yielding successive responses, nil at the end
func (e *testExec) Subscribe(ctx context.Context, p *graphql.RawParams) func(t *testing.T) *graphql.Response {
	responses, ctx := e.start(ctx, p)
	return func(t *testing.T) *graphql.Response {
		t.Helper()
		out := make(chan *graphql.Response, 1)
		go func() { out <- responses(ctx) }()
		select {
		case resp := <-out:
			return resp
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a response")
			return nil
		}
	}
}

func params(query string, vars map[string]any) *graphql.RawParams {
	return &graphql.RawParams{Query: query, Variables: vars}
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for cancellation")
	}
}

func ptr[T any](v T) *T {
	return &v
}

func errorCode(t *testing.T, resp *graphql.Response) string {
	t.Helper()
	require.NotEmpty(t, resp.Errors)
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}
