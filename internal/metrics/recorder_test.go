package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordScan(t *testing.T) {
	r := New()

	r.RecordScan("completed", 2*time.Second, 3, true)
	r.RecordScan("skipped_outside_window", 0, 0, false)
	r.RecordScan("completed", time.Second, 1, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.scansTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scansTotal.WithLabelValues("skipped_outside_window")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastMatches))
	assert.Greater(t, testutil.ToFloat64(r.lastScanTime), 0.0)
}

func TestCounters(t *testing.T) {
	r := New()

	r.RecordSymbolErrors(4)
	r.RecordNotifyFailure()
	r.RecordHTTPRequest("/scan", http.MethodGet, http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 4.0, testutil.ToFloat64(r.symbolErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifyFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/scan", "GET", "200")))
}

func TestHandler(t *testing.T) {
	r := New()
	r.RecordScan("completed", time.Second, 2, true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `pennyscan_scans_total{outcome="completed"} 1`)
	assert.Contains(t, string(body), "pennyscan_last_scan_matches 2")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRecordersAreIndependent(t *testing.T) {
	// separate registries, no duplicate-registration panic
	a, b := New(), New()
	a.RecordNotifyFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.notifyFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.notifyFailures))
}
