// Package backend provides gRPC clients for the accelerator-control services
// the bridge fronts: DPM (device data acquisition), DevDB (device metadata)
// and the clock event service.
//
// # Wire Format
//
// Messages are plain Go structs encoded to the protobuf wire format with
// google.golang.org/protobuf/encoding/protowire. Every call forces Codec, so
// a connection needs no generated registration. The field numbers are
// documented on each message type.
//
// # Oneofs
//
// Protobuf oneofs are modelled as closed interfaces plus an explicit absent
// case. Data.Value is nil when the backend sent no payload and DataUnknown
// when it sent a variant this package does not know; callers decide what that
// means instead of this package guessing.
//
// # Errors
//
// Failures to open a call are classified transient and wrap
// errors.ErrBackendUnavailable. A stream that ends with io.EOF completed
// normally; any other Recv error wraps errors.ErrTransportInterrupted, or
// context.Canceled when the caller went away.
package backend
