package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSend(t *testing.T) {
	okBefore := testutil.ToFloat64(MessagesSent.WithLabelValues("discovery", "ok"))
	errBefore := testutil.ToFloat64(MessagesSent.WithLabelValues("discovery", "error"))

	ObserveSend("discovery", nil)
	ObserveSend("discovery", errors.New("unreachable"))
	ObserveSend("discovery", nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(MessagesSent.WithLabelValues("discovery", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(MessagesSent.WithLabelValues("discovery", "error")))
}

func TestMetricsHandler(t *testing.T) {
	PeersKnown.Set(3)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rossip_peers 3")
	assert.Contains(t, rec.Body.String(), "rossip_uptime_seconds")
}
