package backend

import (
	"context"
	"io"

	"google.golang.org/grpc"
)

const dpmStartAcquisition = "/dpm.DPM/StartAcquisition"

var dpmAcquisitionDesc = &grpc.StreamDesc{
	StreamName:    "StartAcquisition",
	ServerStreams: true,
}

// ReadingStream yields DPM readings until io.EOF or an error.
type ReadingStream interface {
	Recv() (*Reading, error)
}

// DPMClient starts acquisitions on the data pool manager.
type DPMClient struct {
	cc grpc.ClientConnInterface
}

// NewDPMClient creates a DPM client on an existing connection
func NewDPMClient(cc grpc.ClientConnInterface) *DPMClient {
	return &DPMClient{cc: cc}
}

// StartAcquisition opens one acquisition stream for all drfs. Reading.Index
// refers to a position in drfs. Cancelling ctx closes the stream.
func (c *DPMClient) StartAcquisition(ctx context.Context, sessionID string, drfs []string) (ReadingStream, error) {
	stream, err := c.cc.NewStream(ctx, dpmAcquisitionDesc, dpmStartAcquisition, grpc.ForceCodec(Codec))
	if err != nil {
		return nil, openError(err, "DPMClient", "StartAcquisition")
	}

	req := &AcquisitionList{SessionID: sessionID, Req: drfs}
	if err := stream.SendMsg(req); err != nil {
		// io.EOF means the stream already ended; RecvMsg has the status.
		if err == io.EOF {
			if err = stream.RecvMsg(new(Reading)); err == nil {
				err = io.ErrUnexpectedEOF
			}
		}
		return nil, openError(err, "DPMClient", "StartAcquisition")
	}
	if err := stream.CloseSend(); err != nil {
		return nil, openError(err, "DPMClient", "StartAcquisition")
	}

	return &readingStream{stream: stream}, nil
}

type readingStream struct {
	stream grpc.ClientStream
}

func (s *readingStream) Recv() (*Reading, error) {
	m := new(Reading)
	if err := s.stream.RecvMsg(m); err != nil {
		return nil, recvError(err, "DPMClient")
	}
	return m, nil
}
