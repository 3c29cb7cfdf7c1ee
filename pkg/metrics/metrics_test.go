package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Transition("detected")
	m.Transition("detected")
	m.Ingested(1500)
	m.Resized(nil)
	m.Resized(errors.New("quota"))
	m.StageHandled("ocr", time.Now(), nil)

	require.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("detected")))
	require.Equal(t, 1500.0, testutil.ToFloat64(m.ingestedBytes))
	require.Equal(t, 1.0, testutil.ToFloat64(m.resizes.WithLabelValues("error")))
	require.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.Transition("completed")
		m.Ingested(1)
		m.Resized(nil)
		m.StageHandled("translation", time.Now(), errors.New("x"))
	})
}

func TestRegisterGauge(t *testing.T) {
	reg := prometheus.NewRegistry()

	RegisterGauge(reg, "active_premium_sessions", "Premium submissions seen.", func() int64 { return 7 })

	n, err := testutil.GatherAndCount(reg, "cntext_active_premium_sessions")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
