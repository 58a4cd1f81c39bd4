package obs_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Simplici0/calcoz/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewMetrics("calcoz", registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/templates/7", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/templates/{id}", "204"))
	assert.Equal(t, 1.0, total)
	assert.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewMetrics("calcoz", registry)
	second := obs.NewMetrics("calcoz", registry)

	second.ObserveCalculation("api", "INR")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.Calculations.WithLabelValues("api", "INR")))
}

func TestDomainCounters(t *testing.T) {
	metrics := obs.NewMetrics("calcoz", prometheus.NewRegistry())

	metrics.ObserveExport("pdf", nil)
	metrics.ObserveExport("pdf", errors.New("boom"))
	metrics.ObserveTemplate("save", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exports.WithLabelValues("pdf", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exports.WithLabelValues("pdf", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Templates.WithLabelValues("save", "ok")))

	var nilMetrics *obs.Metrics
	nilMetrics.ObserveCalculation("cli", "INR")
}

func TestRequestLoggerWritesStructuredEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: zap.New(core)}.Middleware)
	r.Post("/calculate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/calculate", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/calculate", fields["route"])
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, int64(2), fields["bytes"])
}
