package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	require.NoError(t, c.Register())
	// Idempotent.
	require.NoError(t, c.Register())
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	require.NoError(t, c.Register())

	c.MessagesReceived.Inc()
	c.MessagesReceived.Inc()
	c.MessagesProcessed.WithLabelValues("success").Inc()
	c.SchemaCacheHits.Inc()
	c.SchemaCacheMisses.Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(c.MessagesReceived))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.MessagesProcessed.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.SchemaCacheHits))
}

func TestNewWithNilRegisterer(t *testing.T) {
	c := New(nil)
	require.NotNil(t, c)
	// Collectors exist even without registration.
	c.EventsPublished.WithLabelValues("error").Inc()
}
