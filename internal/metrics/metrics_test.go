package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuthEvent_IncrementsByLabel(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordAuthEvent("login", OutcomeSuccess)
	c.RecordAuthEvent("login", OutcomeSuccess)
	c.RecordAuthEvent("login", OutcomeFailure)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.authEvents.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authEvents.WithLabelValues("login", OutcomeFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.authEvents.WithLabelValues("refresh", OutcomeSuccess)))
}

func TestRecordStoreOp_ObservesLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStoreOp("validate", OutcomeSuccess, 3*time.Millisecond)
	c.RecordStoreOp("insert", OutcomeError, 600*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(c.storeLatency))
}

func TestRecordHTTPStatus(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordHTTPStatus(http.StatusUnauthorized)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("401")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthEvent("signup", OutcomeSuccess)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `authgate_auth_events_total{operation="signup",outcome="success"} 1`))
}

func TestNoop_SatisfiesInterface(t *testing.T) {
	var m MetricsCollector = Noop{}
	m.RecordAuthEvent("login", OutcomeSuccess)
	m.RecordStoreOp("insert", OutcomeSuccess, time.Millisecond)
	m.RecordHTTPStatus(http.StatusOK)
}
