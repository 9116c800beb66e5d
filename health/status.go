package health

import (
	"sort"
	"time"

	"google.golang.org/grpc/connectivity"
)

// Health states
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

// Status represents the health state of a component or system
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == StateHealthy
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == StateDegraded
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == StateUnhealthy
}

// WithSubStatus adds a sub-status and returns a copy
func (s Status) WithSubStatus(subStatus Status) Status {
	subs := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(subs, s.SubStatuses)
	s.SubStatuses = append(subs, subStatus)
	return s
}

// FromConnectivity maps a gRPC connection state onto a health status.
// An idle connection is healthy: backend connections are lazy and only
// connect on the first call.
func FromConnectivity(name string, state connectivity.State) Status {
	switch state {
	case connectivity.Ready:
		return NewHealthy(name, "connected")
	case connectivity.Idle:
		return NewHealthy(name, "idle")
	case connectivity.Connecting:
		return NewDegraded(name, "connecting")
	case connectivity.TransientFailure:
		return NewUnhealthy(name, "backend unavailable")
	case connectivity.Shutdown:
		return NewUnhealthy(name, "connection closed")
	default:
		return NewUnhealthy(name, "unknown connection state "+state.String())
	}
}

// Connections aggregates one status per named connection, in name order
func Connections(system string, states map[string]connectivity.State) Status {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	subs := make([]Status, 0, len(names))
	for _, name := range names {
		subs = append(subs, FromConnectivity(name, states[name]))
	}
	return Aggregate(system, subs)
}
