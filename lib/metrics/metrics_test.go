package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsUseOwnRegistry(t *testing.T) {
	first, second := New(), New()
	first.RecordsCreated.WithLabelValues("invoice").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(first.RecordsCreated.WithLabelValues("invoice")))
	assert.Equal(t, float64(0), testutil.ToFloat64(second.RecordsCreated.WithLabelValues("invoice")))
}

func TestPushSendsGatheredMetrics(t *testing.T) {
	var body string
	var path string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	m := New()
	m.TrustDrift.WithLabelValues("IOLTA-1").Set(50.5)
	require.NoError(t, m.Push(gateway.URL, "trust_reconcile"))

	assert.Equal(t, "/metrics/job/trust_reconcile", path)
	assert.Contains(t, body, "counselhub_trust_account_drift")
}
