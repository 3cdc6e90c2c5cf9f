package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.PassportGenerated(nil, 2048)
	m.PassportGenerated(errors.New("boom"), 0)
	m.PassportGenerated(nil, 4096)
	m.SchemaSaved(nil)
	m.TaskReconciled(errors.New("still broken"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.passports.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passports.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schemas.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciled.WithLabelValues("error")))
}

func TestMetrics_HandlerExposesRequests(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodPost, "/gendocx", http.StatusOK, 120*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `room_passport_http_requests_total{method="POST",route="/gendocx",status="200"} 1`)
	assert.Contains(t, body, "room_passport_http_request_duration_seconds_bucket")
}
