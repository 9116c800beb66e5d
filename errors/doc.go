// Package errors provides the error classification shared by the backend
// clients, the bridge layer and the GraphQL gateway.
//
// # Classes
//
// Every error falls into one of three classes:
//
//   - Transient: the backend could not be reached or its stream ended early
//   - Invalid: bad caller input, bad configuration values, or backend data the
//     bridge cannot translate (an out-of-range index, an unknown payload)
//   - Fatal: the process cannot continue (missing or broken configuration)
//
// Classification works through errors.Is and errors.As, so wrapped chains keep
// their class:
//
//	if err := client.Open(ctx); err != nil {
//	    return errors.WrapTransient(err, "DPMClient", "StartAcquisition", "open stream")
//	}
//
// # Wrapping Pattern
//
// All wrapping follows "component.method: action failed: cause":
//
//	errors.Wrap(err, "IndexTable", "Resolve", "index lookup")
//	// IndexTable.Resolve: index lookup failed: reference index out of range
//
// # Item-level vs Stream-level
//
// ErrIndexOutOfRange, ErrUnrecognizedPayload and ErrEmptyResponse describe a
// single requested item and never end a call. ErrBackendUnavailable and
// ErrTransportInterrupted describe a whole backend call. The bridge package
// decides how each one is surfaced.
package errors
