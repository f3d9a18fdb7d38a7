package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveCall(t *testing.T) {
	c := NewCollector()

	c.ObserveCall(protocol.FuncSend, "ok", time.Millisecond)
	c.ObserveCall(protocol.FuncSend, "ok", time.Millisecond)
	c.ObserveCall(protocol.FuncSend, "failed", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(c.calls.WithLabelValues("send", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("send", "failed")))
}

func TestObserveAudit(t *testing.T) {
	c := NewCollector()

	c.ObserveAudit(3, nil)
	require.Equal(t, 3.0, testutil.ToFloat64(c.auditIssues))
	require.Equal(t, 1.0, testutil.ToFloat64(c.auditRuns.WithLabelValues("violations")))

	c.ObserveAudit(0, errors.New("db down"))
	require.Equal(t, 3.0, testutil.ToFloat64(c.auditIssues))
	require.Equal(t, 1.0, testutil.ToFloat64(c.auditRuns.WithLabelValues("error")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := NewCollector()
	c.ObserveCall(protocol.FuncLock, "ok", time.Millisecond)

	handler := c.InstrumentHandler(c.Handler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `rmrk_extension_extension_calls_total{func="lock",outcome="ok"} 1`))
	require.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "200")))
}
