// Package bridge republishes the DPM, DevDB and clock backends through a
// closed, client-facing data model.
//
// Each bridge opens exactly one backend call per query or subscription and
// shapes every backend item before it leaves the package:
//
//   - AcquisitionBridge streams device readings, correlating each backend
//     item to the caller's request list through an IndexTable.
//   - DeviceInfoBridge performs one batch lookup and always returns exactly
//     one Result per requested device, in request order.
//   - ClockBridge streams clock events with millisecond timestamps.
//
// Failures are contained per call type. A backend that cannot be reached
// yields a closed stream for subscriptions and one failed Result per device
// for batch lookups. A bad item (an index outside the request list or a
// payload that cannot be translated) becomes an item-level error and the
// stream continues. Nothing in this package panics on backend data.
//
// Subscriptions are torn down by cancelling the context passed to Subscribe;
// the backend call is closed with it and nothing further is delivered.
package bridge
