package metrics_test

import (
	"testing"

	"github.com/jrsteele09/lingo-session/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Inc(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Inc(metrics.EventSignIn)
	m.Inc(metrics.EventSignIn)
	m.Inc(metrics.EventTimeout)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.EventSignIn)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.EventTimeout)))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() { m.Inc(metrics.EventSignOut) })
}
