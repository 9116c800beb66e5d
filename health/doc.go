// Package health reports whether the backend connections behind the
// gateway are usable.
//
// A Status is healthy, degraded or unhealthy. Aggregate folds several
// statuses into one by taking the worst of them, and Connections builds
// that aggregate straight from gRPC connection states:
//
//	st := health.Connections("extapi-acsys", clients.States())
//	if st.IsUnhealthy() {
//		// at least one backend is in TRANSIENT_FAILURE or shut down
//	}
//
// Idle connections count as healthy because backend clients dial lazily.
// Connecting counts as degraded.
package health
