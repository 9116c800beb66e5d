package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/metric"
)

func TestBackendHealth_LazyClients(t *testing.T) {
	clients, err := backend.Dial(backend.Config{
		DPM:   "127.0.0.1:1",
		DevDB: "127.0.0.1:2",
		Clock: "127.0.0.1:3",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clients.Close() })

	registry := metric.NewMetricsRegistry()
	st := backendHealth(clients, registry.CoreMetrics())()

	assert.True(t, st.IsHealthy())
	require.Len(t, st.SubStatuses, 3)
	assert.Equal(t, "clock", st.SubStatuses[0].Component)
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.CoreMetrics().HealthCheckStatus.WithLabelValues("dpm")))
}

func TestBackendHealth_NilMetrics(t *testing.T) {
	clients, err := backend.Dial(backend.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, clients.Close())

	st := backendHealth(clients, nil)()
	assert.True(t, st.IsHealthy(), "closed clients report no backends")
	assert.Empty(t, st.SubStatuses)
}
