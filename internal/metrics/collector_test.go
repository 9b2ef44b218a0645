package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ModelFetches.WithLabelValues("linear", "ok").Inc()
	c.ModelFetches.WithLabelValues("linear", "ok").Inc()
	c.PredictionErrors.WithLabelValues("predict-lstm", "shape").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ModelFetches.WithLabelValues("linear", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PredictionErrors.WithLabelValues("predict-lstm", "shape")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ModelsLoaded.Set(2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "awairs_models_loaded 2")
}
