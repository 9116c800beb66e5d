package backend

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// openError classifies a failure to open or complete a backend call.
func openError(err error, component, method string) error {
	if err == nil {
		return nil
	}
	st := status.Convert(err)
	switch st.Code() {
	case codes.Canceled:
		return errors.WrapTransient(context.Canceled, component, method, "open call")
	case codes.DeadlineExceeded:
		return errors.WrapTransient(fmt.Errorf("%w: %w: %s", errors.ErrBackendUnavailable, context.DeadlineExceeded, st.Message()),
			component, method, "open call")
	default:
		return errors.WrapTransient(fmt.Errorf("%w: %s: %s", errors.ErrBackendUnavailable, st.Code(), st.Message()),
			component, method, "open call")
	}
}

// recvError classifies a Recv failure. io.EOF is returned unchanged.
func recvError(err error, component string) error {
	if err == nil || err == io.EOF {
		return err
	}
	st := status.Convert(err)
	if st.Code() == codes.Canceled {
		return errors.WrapTransient(context.Canceled, component, "Recv", "receive")
	}
	return errors.WrapTransient(fmt.Errorf("%w: %s: %s", errors.ErrTransportInterrupted, st.Code(), st.Message()),
		component, "Recv", "receive")
}
