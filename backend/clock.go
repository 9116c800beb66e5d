package backend

import (
	"context"
	"io"

	"google.golang.org/grpc"
)

const clockSubscribe = "/clock_event.ClockEvent/subscribe"

var clockSubscribeDesc = &grpc.StreamDesc{
	StreamName:    "subscribe",
	ServerStreams: true,
}

// EventStream yields clock events until io.EOF or an error.
type EventStream interface {
	Recv() (*EventInfo, error)
}

// ClockClient subscribes to clock events.
type ClockClient struct {
	cc grpc.ClientConnInterface
}

// NewClockClient creates a clock event client on an existing connection
func NewClockClient(cc grpc.ClientConnInterface) *ClockClient {
	return &ClockClient{cc: cc}
}

// Subscribe opens one event stream for the given event codes. Cancelling ctx
// releases the registration.
func (c *ClockClient) Subscribe(ctx context.Context, events []int32) (EventStream, error) {
	stream, err := c.cc.NewStream(ctx, clockSubscribeDesc, clockSubscribe, grpc.ForceCodec(Codec))
	if err != nil {
		return nil, openError(err, "ClockClient", "Subscribe")
	}

	if err := stream.SendMsg(&SubscribeReq{Events: events}); err != nil {
		if err == io.EOF {
			if err = stream.RecvMsg(new(EventInfo)); err == nil {
				err = io.ErrUnexpectedEOF
			}
		}
		return nil, openError(err, "ClockClient", "Subscribe")
	}
	if err := stream.CloseSend(); err != nil {
		return nil, openError(err, "ClockClient", "Subscribe")
	}

	return &eventStream{stream: stream}, nil
}

type eventStream struct {
	stream grpc.ClientStream
}

func (s *eventStream) Recv() (*EventInfo, error) {
	m := new(EventInfo)
	if err := s.stream.RecvMsg(m); err != nil {
		return nil, recvError(err, "ClockClient")
	}
	return m, nil
}
