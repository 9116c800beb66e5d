package backend_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/status"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/backend/backendtest"
	"github.com/fermi-controls/extapi-acsys/errors"
)

func TestDPMClient_StartAcquisition(t *testing.T) {
	srv := backendtest.NewServer(t, backendtest.WithAcquire(
		func(_ context.Context, req *backend.AcquisitionList, send func(*backend.Reading) error) error {
			for i := range req.Req {
				if err := send(&backend.Reading{
					Index: uint32(i),
					Cycle: 7,
					Data:  &backend.Data{Value: backend.DataScalar{Scalar: float64(i) + 0.5}},
				}); err != nil {
					return err
				}
			}
			return nil
		}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := srv.DPM.StartAcquisition(ctx, "session-1", []string{"M:OUTTMP", "G:AMANDA"})
	require.NoError(t, err)

	var got []*backend.Reading
	for {
		r, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, r)
	}

	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[1].Index)
	assert.Equal(t, backend.DataScalar{Scalar: 1.5}, got[1].Data.Value)

	reqs := srv.Acquisitions()
	require.Len(t, reqs, 1)
	assert.Equal(t, "session-1", reqs[0].SessionID)
	assert.Equal(t, []string{"M:OUTTMP", "G:AMANDA"}, reqs[0].Req)
}

func TestDPMClient_StreamInterrupted(t *testing.T) {
	srv := backendtest.NewServer(t, backendtest.WithAcquire(
		func(_ context.Context, _ *backend.AcquisitionList, send func(*backend.Reading) error) error {
			if err := send(&backend.Reading{Data: &backend.Data{Value: backend.DataStatus{Status: 1}}}); err != nil {
				return err
			}
			return status.Error(codes.Internal, "front-end went away")
		}))

	stream, err := srv.DPM.StartAcquisition(context.Background(), "", []string{"M:OUTTMP"})
	require.NoError(t, err)

	_, err = stream.Recv()
	require.NoError(t, err)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTransportInterrupted))
	assert.Contains(t, err.Error(), "front-end went away")
}

func TestDPMClient_Unreachable(t *testing.T) {
	client := backend.NewDPMClient(backendtest.Unreachable(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.StartAcquisition(ctx, "", []string{"M:OUTTMP"})
	if err == nil {
		// Some transports only report the failure on the first receive.
		_, err = stream.Recv()
	}
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestDevDBClient_GetDeviceInfo(t *testing.T) {
	srv := backendtest.NewServer(t, backendtest.WithDeviceInfo(
		func(_ context.Context, req *backend.DeviceList) (*backend.DeviceInfoReply, error) {
			reply := &backend.DeviceInfoReply{}
			for _, d := range req.Device {
				reply.Set = append(reply.Set, &backend.InfoEntry{
					Name:   d,
					Result: backend.InfoDevice{Device: &backend.DeviceInfo{Description: "about " + d}},
				})
			}
			return reply, nil
		}))

	reply, err := srv.DevDB.GetDeviceInfo(context.Background(), []string{"M:OUTTMP", "M:OUTTMP"})
	require.NoError(t, err)
	require.Len(t, reply.Set, 2)
	assert.Equal(t, "about M:OUTTMP", reply.Set[1].Result.(backend.InfoDevice).Device.Description)
}

func TestDevDBClient_Unavailable(t *testing.T) {
	client := backend.NewDevDBClient(backendtest.Unreachable(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.GetDeviceInfo(ctx, []string{"M:OUTTMP"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBackendUnavailable))
	assert.True(t, errors.IsTransient(err))
}

func TestClockClient_Subscribe(t *testing.T) {
	srv := backendtest.NewServer(t, backendtest.WithEvents(
		func(_ context.Context, req *backend.SubscribeReq, send func(*backend.EventInfo) error) error {
			for _, e := range req.Events {
				if err := send(&backend.EventInfo{
					Stamp: &backend.Timestamp{Seconds: 10, Nanos: 500_000_000},
					Event: e,
				}); err != nil {
					return err
				}
			}
			return nil
		}))

	stream, err := srv.Clock.Subscribe(context.Background(), []int32{0x02, 0x8f})
	require.NoError(t, err)

	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, int32(0x02), first.Event)
	assert.Equal(t, &backend.Timestamp{Seconds: 10, Nanos: 500_000_000}, first.Stamp)

	second, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, int32(0x8f), second.Event)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestClockClient_CancelReleasesServerStream(t *testing.T) {
	released := make(chan struct{})
	srv := backendtest.NewServer(t, backendtest.WithEvents(
		func(ctx context.Context, _ *backend.SubscribeReq, _ func(*backend.EventInfo) error) error {
			<-ctx.Done()
			close(released)
			return ctx.Err()
		}))

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := srv.Clock.Subscribe(ctx, []int32{2})
	require.NoError(t, err)

	cancel()

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("server stream was not released after cancel")
	}

	_, err = stream.Recv()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestConfig_Validate(t *testing.T) {
	cfg := backend.Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, backend.DefaultDPMAddress, cfg.DPM)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout())

	bad := backend.Config{DPM: "no-port"}
	assert.Error(t, bad.Validate())

	slow := backend.Config{ConnectTimeoutStr: "2h"}
	assert.Error(t, slow.Validate())
}

func TestDial_LazyConnections(t *testing.T) {
	clients, err := backend.Dial(backend.Config{
		DPM:   "127.0.0.1:1",
		DevDB: "127.0.0.1:2",
		Clock: "127.0.0.1:3",
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, clients.DPM)
	require.NotNil(t, clients.DevDB)
	require.NotNil(t, clients.Clock)
	assert.Equal(t, map[string]connectivity.State{
		"dpm":   connectivity.Idle,
		"devdb": connectivity.Idle,
		"clock": connectivity.Idle,
	}, clients.States())

	require.NoError(t, clients.Close())
	assert.Empty(t, clients.States())
}

func TestDial_InvalidConfig(t *testing.T) {
	_, err := backend.Dial(backend.Config{Clock: "clock"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
