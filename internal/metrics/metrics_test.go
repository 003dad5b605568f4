package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.Resolution("first", "success", 0.2)
	r.Resolution("first", "success", 0.1)
	r.Probe("invalid", 0.05)
	r.Transition("web")
	r.ObservedURL("suppressed")
	r.Gate("passed")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.resolutions.WithLabelValues("first", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.probes.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transitions.WithLabelValues("web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reports.WithLabelValues("suppressed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.gate.WithLabelValues("passed")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Resolution("first", "success", 1)
		r.Probe("valid", 1)
		r.Transition("original")
		r.ObservedURL("accepted")
		r.Gate("device")
	})
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).Transition("web")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `flowgate_mode_transitions_total{to="web"} 1`)
}
