// Package backendtest provides in-process fakes of the DPM, DevDB and clock
// gRPC services for tests. Servers run over bufconn and speak the same wire
// format as the production services.
package backendtest

import (
	"context"
	"net"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/fermi-controls/extapi-acsys/backend"
)

const bufSize = 1 << 20

// AcquireFunc serves one DPM acquisition. It returns when the stream should
// end; ctx is cancelled when the client goes away.
type AcquireFunc func(ctx context.Context, req *backend.AcquisitionList, send func(*backend.Reading) error) error

// DeviceInfoFunc serves one DevDB lookup.
type DeviceInfoFunc func(ctx context.Context, req *backend.DeviceList) (*backend.DeviceInfoReply, error)

// EventsFunc serves one clock event subscription.
type EventsFunc func(ctx context.Context, req *backend.SubscribeReq, send func(*backend.EventInfo) error) error

// Server is an in-process fake of all three backend services
type Server struct {
	// Conn is a client connection to the fake services
	Conn *grpc.ClientConn

	DPM   *backend.DPMClient
	DevDB *backend.DevDBClient
	Clock *backend.ClockClient

	lis  *bufconn.Listener
	grpc *grpc.Server

	mu           sync.Mutex
	acquire      AcquireFunc
	deviceInfo   DeviceInfoFunc
	events       EventsFunc
	acquisitions []*backend.AcquisitionList
	lookups      []*backend.DeviceList
	subscribes   []*backend.SubscribeReq
}

// Option configures a Server
type Option func(*Server)

// WithAcquire sets the DPM acquisition handler
func WithAcquire(fn AcquireFunc) Option {
	return func(s *Server) {
		s.acquire = fn
	}
}

// WithDeviceInfo sets the DevDB lookup handler
func WithDeviceInfo(fn DeviceInfoFunc) Option {
	return func(s *Server) {
		s.deviceInfo = fn
	}
}

// WithEvents sets the clock subscription handler
func WithEvents(fn EventsFunc) Option {
	return func(s *Server) {
		s.events = fn
	}
}

// NewServer starts the fake services and connects a client to them. Both are
// torn down by t.Cleanup.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		lis:  bufconn.Listen(bufSize),
		grpc: grpc.NewServer(grpc.ForceServerCodec(backend.Codec)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grpc.RegisterService(&dpmServiceDesc, s)
	s.grpc.RegisterService(&devdbServiceDesc, s)
	s.grpc.RegisterService(&clockServiceDesc, s)

	go func() {
		_ = s.grpc.Serve(s.lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("backendtest: create client: %v", err)
	}

	s.Conn = conn
	s.DPM = backend.NewDPMClient(conn)
	s.DevDB = backend.NewDevDBClient(conn)
	s.Clock = backend.NewClockClient(conn)

	t.Cleanup(func() {
		_ = conn.Close()
		s.grpc.Stop()
	})

	return s
}

// Unreachable returns a connection whose every dial attempt fails, for
// exercising connection failures.
func Unreachable(t testing.TB) *grpc.ClientConn {
	t.Helper()

	conn, err := grpc.NewClient("passthrough:///unreachable",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return nil, status.Error(codes.Unavailable, "connection refused")
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("backendtest: create client: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// Acquisitions returns every acquisition request received so far
func (s *Server) Acquisitions() []*backend.AcquisitionList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*backend.AcquisitionList(nil), s.acquisitions...)
}

// Lookups returns every DevDB request received so far
func (s *Server) Lookups() []*backend.DeviceList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*backend.DeviceList(nil), s.lookups...)
}

// Subscriptions returns every clock subscription received so far
func (s *Server) Subscriptions() []*backend.SubscribeReq {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*backend.SubscribeReq(nil), s.subscribes...)
}

var dpmServiceDesc = grpc.ServiceDesc{
	ServiceName: "dpm.DPM",
	HandlerType: (*any)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    "StartAcquisition",
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			s := srv.(*Server)
			req := new(backend.AcquisitionList)
			if err := stream.RecvMsg(req); err != nil {
				return err
			}

			s.mu.Lock()
			s.acquisitions = append(s.acquisitions, req)
			fn := s.acquire
			s.mu.Unlock()

			if fn == nil {
				return status.Error(codes.Unimplemented, "acquisition not configured")
			}
			return fn(stream.Context(), req, func(r *backend.Reading) error {
				return stream.SendMsg(r)
			})
		},
	}},
}

var devdbServiceDesc = grpc.ServiceDesc{
	ServiceName: "devdb.DevDB",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "getDeviceInfo",
		Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			s := srv.(*Server)
			req := new(backend.DeviceList)
			if err := dec(req); err != nil {
				return nil, err
			}

			s.mu.Lock()
			s.lookups = append(s.lookups, req)
			fn := s.deviceInfo
			s.mu.Unlock()

			if fn == nil {
				return nil, status.Error(codes.Unimplemented, "device info not configured")
			}
			return fn(ctx, req)
		},
	}},
}

var clockServiceDesc = grpc.ServiceDesc{
	ServiceName: "clock_event.ClockEvent",
	HandlerType: (*any)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    "subscribe",
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			s := srv.(*Server)
			req := new(backend.SubscribeReq)
			if err := stream.RecvMsg(req); err != nil {
				return err
			}

			s.mu.Lock()
			s.subscribes = append(s.subscribes, req)
			fn := s.events
			s.mu.Unlock()

			if fn == nil {
				return status.Error(codes.Unimplemented, "clock events not configured")
			}
			return fn(stream.Context(), req, func(e *backend.EventInfo) error {
				return stream.SendMsg(e)
			})
		},
	}},
}
