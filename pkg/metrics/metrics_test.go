package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/config"
	"github.com/opencost/gputco/pkg/storage"
)

func TestHandlerLabel(t *testing.T) {
	cases := []struct {
		path string
		code int
		want string
	}{
		{"/tco", http.StatusOK, "/tco"},
		{"/overrides", http.StatusOK, "/overrides"},
		{"/overrides/energyRate", http.StatusOK, "/overrides/:key"},
		{"/catalog", http.StatusOK, "/catalog"},
		{"/catalog/gpus", http.StatusOK, "/catalog/:kind"},
		{"/software/stacks/open-source-hpc/cost", http.StatusOK, "/software/stacks/:id/cost"},
		{"/admin/access-logs", http.StatusUnauthorized, "/admin/access-logs"},
		{"/wp-login.php", http.StatusNotFound, "unmatched"},
		{"/tco", http.StatusMethodNotAllowed, "unmatched"},
		{"/", http.StatusOK, "/"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HandlerLabel(tc.path, tc.code), tc.path)
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}

	assert.Equal(t, http.StatusOK, sr.StatusCode())

	sr.WriteHeader(http.StatusTeapot)
	_, err := sr.Write([]byte("short and stout"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, sr.StatusCode())
	assert.Equal(t, uint64(15), sr.size)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	InitTelemetryWith(reg, &MetricsConfig{DisabledMetrics: []string{HTTPResponseSizeBytes}})

	assert.Nil(t, responseSize)

	handler := ResponseMetricMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog/gpus", nil))

	DispatchCalculation(CalculationMetricEvent{GPUModel: "h100", Warnings: 2, Duration: time.Millisecond})
	DispatchCalculation(CalculationMetricEvent{GPUModel: "h100", Cached: true})
	DispatchActivity(ActivityDropped)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(requestsCount.WithLabelValues("/catalog/:kind", http.MethodGet, "200")) == 1 &&
			testutil.ToFloat64(calculationsCount.WithLabelValues("h100", "false")) == 1 &&
			testutil.ToFloat64(calculationsCount.WithLabelValues("h100", "true")) == 1 &&
			testutil.ToFloat64(calculationWarnings) == 2 &&
			testutil.ToFloat64(activityCount.WithLabelValues("dropped")) == 1
	}, time.Second, 10*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names[CalculationsTotal])
	assert.False(t, names[HTTPResponseSizeBytes])
}

func TestMetricsConfig(t *testing.T) {
	cf := config.NewConfigFileManagerWith(storage.NewMemoryStorage()).ConfigFileAt(MetricsConfigFileName)

	mc, err := GetMetricsConfig(cf)
	require.NoError(t, err)
	assert.Empty(t, mc.DisabledMetrics)

	_, err = UpdateMetricsConfig(cf, &MetricsConfig{DisabledMetrics: []string{CalculationSeconds}})
	require.NoError(t, err)

	mc, err = GetMetricsConfig(cf)
	require.NoError(t, err)
	assert.Equal(t, []string{CalculationSeconds}, mc.DisabledMetrics)
	assert.Contains(t, mc.GetDisabledMetricsMap(), CalculationSeconds)
}
